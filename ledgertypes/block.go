// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgertypes

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/wire"
)

// Block is a header plus the body of fragments it commits to. The header's
// content_hash must equal the Blake2b-256 hash of the concatenated,
// canonically encoded fragment bytes; content_size must equal their total
// length. Both are checked by Validate rather than assumed.
type Block struct {
	Header    Header
	Fragments []Fragment
}

// bodyBytes returns the canonical concatenation of every fragment's
// encoding, the bytes content_hash and content_size are computed over.
func bodyBytes(fragments []Fragment) ([]byte, error) {
	w := wire.NewWriter(1024)
	for _, f := range fragments {
		if err := f.Encode(w); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// NewBlock builds a Block with Header.ContentSize and Header.ContentHash
// computed from fragments, leaving every other header field (version,
// date, chain length, parent hash, auth region) to the caller.
func NewBlock(h Header, fragments []Fragment) (Block, error) {
	body, err := bodyBytes(fragments)
	if err != nil {
		return Block{}, err
	}
	h.ContentSize = uint32(len(body))
	h.ContentHash = chainhash.HashH(body)
	return Block{Header: h, Fragments: fragments}, nil
}

// Validate checks that the block's header commits correctly to its body:
// content_size and content_hash must match the actual encoded fragments.
// It does not check ledger-level validity (authentication, double-spends,
// fee balance); that is the ledger package's job.
func (b Block) Validate() error {
	body, err := bodyBytes(b.Fragments)
	if err != nil {
		return err
	}
	if uint32(len(body)) != b.Header.ContentSize {
		return fmt.Errorf("ledgertypes: header declares content_size %d, body is %d bytes", b.Header.ContentSize, len(body))
	}
	if chainhash.HashH(body) != b.Header.ContentHash {
		return fmt.Errorf("ledgertypes: header content_hash does not match body")
	}
	return nil
}

// Encode writes the block's canonical bytes: the header followed by the
// exact content_size bytes of concatenated fragments.
func (b Block) Encode(w *wire.Writer) error {
	if err := b.Header.Encode(w); err != nil {
		return err
	}
	body, err := bodyBytes(b.Fragments)
	if err != nil {
		return err
	}
	if uint32(len(body)) != b.Header.ContentSize {
		return fmt.Errorf("ledgertypes: header declares content_size %d, body is %d bytes", b.Header.ContentSize, len(body))
	}
	w.PutBytes(body)
	return nil
}

// DecodeBlock reads a canonical-wire block: a header followed by exactly
// header.ContentSize bytes of fragments, parsed until that many bytes are
// consumed.
func DecodeBlock(r *wire.Reader) (Block, error) {
	h, err := DecodeHeader(r)
	if err != nil {
		return Block{}, err
	}
	bodyBytes, err := r.GetBytes(int(h.ContentSize))
	if err != nil {
		return Block{}, err
	}
	bodyReader := wire.NewReader(bodyBytes)
	var fragments []Fragment
	for bodyReader.Remaining() > 0 {
		f, err := DecodeFragment(bodyReader)
		if err != nil {
			return Block{}, err
		}
		fragments = append(fragments, f)
	}
	return Block{Header: h, Fragments: fragments}, nil
}

// Hash returns the block's block hash, delegating to its header.
func (b Block) Hash() (chainhash.Hash, error) {
	return b.Header.Hash()
}
