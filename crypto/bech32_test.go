// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import "testing"

func TestBech32EncodeDecodeRoundTrips(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	s, err := Bech32Encode(HRPEd25519Public, payload)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Bech32Decode(HRPEd25519Public, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(payload) {
		t.Fatalf("got %d bytes, want %d", len(got), len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("byte %d: got %#x, want %#x", i, got[i], payload[i])
		}
	}
}

func TestBech32DecodeRejectsWrongHRP(t *testing.T) {
	s, err := Bech32Encode(HRPVRFPublic, []byte{9, 9, 9})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Bech32Decode(HRPEd25519Public, s); err == nil {
		t.Fatal("expected an error decoding under a mismatched HRP")
	}
}

func TestBech32DecodeRejectsMalformedString(t *testing.T) {
	if _, err := Bech32Decode(HRPAddress, "not a bech32 string"); err == nil {
		t.Fatal("expected an error for a malformed bech32 string")
	}
}
