package internal

import (
	"strings"
	"testing"
)

func TestNewOTPDigits(t *testing.T) {
	for _, n := range []int{6, 8, 10} {
		otp, err := NewOTP(n)
		if err != nil {
			t.Fatalf("NewOTP(%d) error: %v", n, err)
		}
		if len(otp) != n {
			t.Fatalf("NewOTP(%d) length = %d", n, len(otp))
		}
		if strings.Trim(otp, "0123456789") != "" {
			t.Fatalf("NewOTP(%d) = %q contains non-digits", n, otp)
		}
	}
}

func TestNewOTPRejectsBadLength(t *testing.T) {
	for _, n := range []int{0, 5, 11} {
		if _, err := NewOTP(n); err == nil {
			t.Fatalf("NewOTP(%d): expected error", n)
		}
	}
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("token")
	if a != Fingerprint("token") {
		t.Fatal("fingerprint not deterministic")
	}
	if a == Fingerprint("token2") {
		t.Fatal("distinct inputs collided")
	}
	if len(a) != 64 {
		t.Fatalf("unexpected fingerprint length %d", len(a))
	}
}
