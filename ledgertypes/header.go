// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledgertypes

import (
	"fmt"

	"github.com/ogprotocol/ogpnode/chainhash"
	"github.com/ogprotocol/ogpnode/crypto"
	"github.com/ogprotocol/ogpnode/wire"
)

// ConsensusVersion selects which of the two authentication schemes a
// header's auth region carries.
type ConsensusVersion uint16

const (
	ConsensusBFT ConsensusVersion = 1
	ConsensusOGP ConsensusVersion = 2
)

// vrfProofSlotSize is the header's fixed wire allotment for a vrf_proof
// field. A proof is variable-length output of the VRF suite, so the slot is
// carried as a one-byte length prefix followed by 95 bytes of (possibly
// zero-padded) payload, keeping the field's total wire width fixed at 96
// bytes regardless of the suite's actual proof length.
const vrfProofSlotSize = 96

// BlockDate locates a block within the epoch schedule.
type BlockDate struct {
	Epoch uint32
	Slot  uint32
}

// BFTAuth is the leader-rotation authentication region: the declared
// leader's public key and its signature over the header's committed
// fields.
type BFTAuth struct {
	LeaderID  crypto.PublicKey
	Signature crypto.Signature[crypto.BlockRole]
}

// wireSize of a BFT auth region: 32-byte key + 64-byte signature.
const bftAuthSize = crypto.PublicKeySize + crypto.SignatureSize

// OGPAuth is the VRF-lottery/KES authentication region.
type OGPAuth struct {
	PoolID       PoolID
	VRFProof     crypto.VRFProof
	KESSignature crypto.KESSignature
}

// wireSize of an OGP auth region: 32-byte pool id + 96-byte vrf proof slot +
// 484-byte KES signature.
const ogpAuthSize = 32 + vrfProofSlotSize + crypto.KESSignatureSize

// headerFixedSize is the size of every field preceding the auth region,
// common to both versions.
const headerFixedSize = 2 + 4 + 4 + 4 + 4 + chainhash.HashSize + chainhash.HashSize

// Header is a block's fixed-layout authenticated metadata: byte offsets
// are significant since content_hash and parent_hash are committed to by
// the auth region's signature over exactly this layout.
//
//	0  u16  version
//	2  u32  content_size
//	6  u32  date.epoch
//	10 u32  date.slot_id
//	14 u32  chain_length
//	18 [32] content_hash
//	50 [32] parent_hash
//	82 ...  auth region (BFT: 96 bytes, total 178; OGP: 612 bytes, total 694)
type Header struct {
	Version     ConsensusVersion
	ContentSize uint32
	Date        BlockDate
	ChainLength uint32
	ContentHash chainhash.Hash
	ParentHash  chainhash.Hash

	BFT *BFTAuth // Version == ConsensusBFT
	OGP *OGPAuth // Version == ConsensusOGP
}

// Size returns the header's total wire size for its version.
func (h Header) Size() int {
	switch h.Version {
	case ConsensusBFT:
		return headerFixedSize + bftAuthSize
	case ConsensusOGP:
		return headerFixedSize + ogpAuthSize
	default:
		return headerFixedSize
	}
}

// signedPrefix writes every field the auth region's signature commits to:
// everything up to but excluding the auth region itself.
func (h Header) signedPrefix(w *wire.Writer) {
	w.PutU16(uint16(h.Version))
	w.PutU32(h.ContentSize)
	w.PutU32(h.Date.Epoch)
	w.PutU32(h.Date.Slot)
	w.PutU32(h.ChainLength)
	w.PutBytes(h.ContentHash[:])
	w.PutBytes(h.ParentHash[:])
}

// SignedBytes returns the canonical bytes a block's authentication
// (BFT signature or KES signature) is computed over.
func (h Header) SignedBytes() []byte {
	w := wire.NewWriter(headerFixedSize)
	h.signedPrefix(w)
	return w.Bytes()
}

// Encode writes the header's canonical bytes, including its auth region.
func (h Header) Encode(w *wire.Writer) error {
	h.signedPrefix(w)
	switch h.Version {
	case ConsensusBFT:
		if h.BFT == nil {
			if h.ChainLength != 0 {
				return fmt.Errorf("ledgertypes: BFT header missing auth region")
			}
			// Block 0 has no leader to sign it; its auth region is all zeros.
			w.PutBytes(make([]byte, bftAuthSize))
			break
		}
		w.PutBytes(h.BFT.LeaderID[:])
		sig := h.BFT.Signature.Bytes()
		w.PutBytes(sig[:])
	case ConsensusOGP:
		if h.OGP == nil {
			return fmt.Errorf("ledgertypes: OGP header missing auth region")
		}
		w.PutBytes(h.OGP.PoolID[:])
		if len(h.OGP.VRFProof.Bytes) > vrfProofSlotSize-1 {
			return fmt.Errorf("ledgertypes: vrf proof %d bytes exceeds slot capacity %d", len(h.OGP.VRFProof.Bytes), vrfProofSlotSize-1)
		}
		w.PutU8(uint8(len(h.OGP.VRFProof.Bytes)))
		var slot [vrfProofSlotSize - 1]byte
		copy(slot[:], h.OGP.VRFProof.Bytes)
		w.PutBytes(slot[:])
		if err := encodeKESSignature(w, h.OGP.KESSignature); err != nil {
			return err
		}
	default:
		return fmt.Errorf("ledgertypes: unknown header version %d", h.Version)
	}
	return nil
}

func encodeKESSignature(w *wire.Writer, sig crypto.KESSignature) error {
	w.PutU32(sig.Period)
	w.PutBytes(sig.LeafSig[:])
	w.PutBytes(sig.LeafPK[:])
	for _, node := range sig.Path {
		w.PutBytes(node[:])
	}
	return nil
}

func decodeKESSignature(r *wire.Reader) (crypto.KESSignature, error) {
	var sig crypto.KESSignature
	period, err := r.GetU32()
	if err != nil {
		return sig, err
	}
	sig.Period = period
	leafSig, err := r.GetBytes(len(sig.LeafSig))
	if err != nil {
		return sig, err
	}
	copy(sig.LeafSig[:], leafSig)
	leafPK, err := r.GetBytes(len(sig.LeafPK))
	if err != nil {
		return sig, err
	}
	copy(sig.LeafPK[:], leafPK)
	for i := range sig.Path {
		node, err := r.GetHash32()
		if err != nil {
			return sig, err
		}
		sig.Path[i] = node
	}
	return sig, nil
}

// DecodeHeader reads a canonical-wire header, dispatching on the leading
// version field to select the auth region's shape.
func DecodeHeader(r *wire.Reader) (Header, error) {
	version, err := r.GetU16()
	if err != nil {
		return Header{}, err
	}
	contentSize, err := r.GetU32()
	if err != nil {
		return Header{}, err
	}
	epoch, err := r.GetU32()
	if err != nil {
		return Header{}, err
	}
	slot, err := r.GetU32()
	if err != nil {
		return Header{}, err
	}
	chainLength, err := r.GetU32()
	if err != nil {
		return Header{}, err
	}
	contentHash, err := r.GetHash32()
	if err != nil {
		return Header{}, err
	}
	parentHash, err := r.GetHash32()
	if err != nil {
		return Header{}, err
	}

	h := Header{
		Version:     ConsensusVersion(version),
		ContentSize: contentSize,
		Date:        BlockDate{Epoch: epoch, Slot: slot},
		ChainLength: chainLength,
		ContentHash: chainhash.Hash(contentHash),
		ParentHash:  chainhash.Hash(parentHash),
	}

	switch h.Version {
	case ConsensusBFT:
		leaderB, err := r.GetBytes(crypto.PublicKeySize)
		if err != nil {
			return Header{}, err
		}
		var leaderID crypto.PublicKey
		copy(leaderID[:], leaderB)
		sigB, err := r.GetBytes(crypto.SignatureSize)
		if err != nil {
			return Header{}, err
		}
		sig, err := crypto.SignatureFromBytes[crypto.BlockRole](sigB)
		if err != nil {
			return Header{}, err
		}
		h.BFT = &BFTAuth{LeaderID: leaderID, Signature: sig}
	case ConsensusOGP:
		poolID, err := r.GetHash32()
		if err != nil {
			return Header{}, err
		}
		proofLen, err := r.GetU8()
		if err != nil {
			return Header{}, err
		}
		if int(proofLen) > vrfProofSlotSize-1 {
			return Header{}, fmt.Errorf("ledgertypes: declared vrf proof length %d exceeds slot capacity %d", proofLen, vrfProofSlotSize-1)
		}
		slot, err := r.GetBytes(vrfProofSlotSize - 1)
		if err != nil {
			return Header{}, err
		}
		proof := crypto.VRFProof{Bytes: append([]byte(nil), slot[:proofLen]...)}
		kesSig, err := decodeKESSignature(r)
		if err != nil {
			return Header{}, err
		}
		h.OGP = &OGPAuth{PoolID: PoolID(poolID), VRFProof: proof, KESSignature: kesSig}
	default:
		return Header{}, fmt.Errorf("ledgertypes: unknown header version tag %d", version)
	}
	return h, nil
}

// Hash is the header's content-addressed block hash: the Blake2b-256 digest
// of its full canonical encoding, auth region included, so a changed
// signature produces a different block hash.
func (h Header) Hash() (chainhash.Hash, error) {
	w := wire.NewWriter(h.Size())
	if err := h.Encode(w); err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.HashH(w.Bytes()), nil
}
