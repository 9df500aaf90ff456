package domain

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/steffenpharai/dexpricer/internal/apperror"
)

var (
	tokenT = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenQ = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tokenR = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func TestSwapPath_EncodeSingleHop(t *testing.T) {
	path, err := SingleHop(tokenT, tokenQ, FeeTier030)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	encoded := path.Encode()

	if len(encoded) != 43 {
		t.Fatalf("expected 43 bytes, got %d", len(encoded))
	}

	// tokenT bytes || 0x000bb8 || tokenQ bytes
	want := append([]byte{}, tokenT.Bytes()...)
	want = append(want, 0x00, 0x0b, 0xb8)
	want = append(want, tokenQ.Bytes()...)

	if !bytes.Equal(encoded, want) {
		t.Errorf("encoded path mismatch:\n got %x\nwant %x", encoded, want)
	}
}

func TestSwapPath_EncodeLength(t *testing.T) {
	tests := []struct {
		name   string
		tokens []common.Address
		fees   []uint32
	}{
		{"one_hop", []common.Address{tokenT, tokenQ}, []uint32{FeeTier005}},
		{"two_hops", []common.Address{tokenT, tokenQ, tokenR}, []uint32{FeeTier030, FeeTier005}},
		{"max_fee_tier", []common.Address{tokenT, tokenQ}, []uint32{FeeTier100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := NewSwapPath(tt.tokens, tt.fees)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			encoded := path.Encode()

			wantLen := 20 + 23*len(tt.fees)
			if len(encoded) != wantLen {
				t.Errorf("expected %d bytes, got %d", wantLen, len(encoded))
			}
			if !bytes.Equal(encoded[:20], tt.tokens[0].Bytes()) {
				t.Errorf("first 20 bytes must be the input token address")
			}
		})
	}
}

func TestSwapPath_EncodeFeeBigEndian(t *testing.T) {
	path, err := SingleHop(tokenT, tokenQ, FeeTier005)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	encoded := path.Encode()

	// 500 = 0x0001f4
	if encoded[20] != 0x00 || encoded[21] != 0x01 || encoded[22] != 0xf4 {
		t.Errorf("fee bytes mismatch: got %x", encoded[20:23])
	}
}

func TestNewSwapPath_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		tokens []common.Address
		fees   []uint32
	}{
		{"empty", nil, nil},
		{"singleton", []common.Address{tokenT}, nil},
		{"missing_fee", []common.Address{tokenT, tokenQ}, nil},
		{"extra_fee", []common.Address{tokenT, tokenQ}, []uint32{FeeTier030, FeeTier030}},
		{"fee_overflows_uint24", []common.Address{tokenT, tokenQ}, []uint32{1 << 24}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSwapPath(tt.tokens, tt.fees)
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperror.HasCode(err, apperror.CodeInvalidPath) {
				t.Errorf("expected INVALID_PATH, got %v", apperror.GetCode(err))
			}
		})
	}
}

func TestSwapPath_Accessors(t *testing.T) {
	path, err := NewSwapPath([]common.Address{tokenT, tokenQ, tokenR}, []uint32{FeeTier030, FeeTier005})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if path.Hops() != 2 {
		t.Errorf("expected 2 hops, got %d", path.Hops())
	}
	if path.TokenIn() != tokenT {
		t.Errorf("wrong input token")
	}
	if path.TokenOut() != tokenR {
		t.Errorf("wrong output token")
	}
}
