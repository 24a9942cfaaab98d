package common

import (
	"encoding/base64"
	"testing"
)

// ---------- MakeRandURLSafeString ----------

func TestMakeRandURLSafeString_DecodesToSize(t *testing.T) {
	s, err := MakeRandURLSafeString(TokenEntropyBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("string is not base64url: %v", err)
	}
	if len(raw) != TokenEntropyBytes {
		t.Fatalf("expected %d bytes, got %d", TokenEntropyBytes, len(raw))
	}
}

func TestMakeRandURLSafeString_Unique(t *testing.T) {
	a, err := MakeRandURLSafeString(TokenEntropyBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := MakeRandURLSafeString(TokenEntropyBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatalf("two tokens are identical: %q", a)
	}
}

func TestMakeRandURLSafeString_NoReservedChars(t *testing.T) {
	for i := 0; i < 50; i++ {
		s, err := MakeRandURLSafeString(TokenEntropyBytes)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, c := range s {
			if c == '+' || c == '/' || c == '=' {
				t.Fatalf("unexpected character %q in %q", c, s)
			}
		}
	}
}

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}
