package twofa

import (
	"errors"
	"strings"
	"testing"
)

func TestNewLoginAttemptIDRoundTrips(t *testing.T) {
	id := NewLoginAttemptID()
	parsed, err := ParseLoginAttemptID(id.String())
	if err != nil {
		t.Fatalf("ParseLoginAttemptID error: %v", err)
	}
	if parsed != id {
		t.Fatalf("round trip mismatch: %q != %q", parsed, id)
	}
	if NewLoginAttemptID() == id {
		t.Fatal("expected distinct ids")
	}
}

func TestParseLoginAttemptIDCanonicalizes(t *testing.T) {
	id := NewLoginAttemptID()
	parsed, err := ParseLoginAttemptID(strings.ToUpper(id.String()))
	if err != nil {
		t.Fatalf("ParseLoginAttemptID error: %v", err)
	}
	if parsed != id {
		t.Fatalf("expected upper-case form to canonicalize to %q, got %q", id, parsed)
	}
}

func TestParseLoginAttemptIDRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "not-a-uuid", "1234", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"} {
		if _, err := ParseLoginAttemptID(s); !errors.Is(err, ErrInvalidLoginAttemptID) {
			t.Fatalf("ParseLoginAttemptID(%q): expected ErrInvalidLoginAttemptID, got %v", s, err)
		}
	}
}

func TestNewCodeShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		c, err := NewCode()
		if err != nil {
			t.Fatalf("NewCode error: %v", err)
		}
		if _, err := ParseCode(c.String()); err != nil {
			t.Fatalf("generated code %q does not parse: %v", c, err)
		}
	}
}

func TestParseCode(t *testing.T) {
	if _, err := ParseCode("012345"); err != nil {
		t.Fatalf("ParseCode error: %v", err)
	}
	for _, s := range []string{"", "12345", "1234567", "12a456", " 12345", "１２３４５６"} {
		if _, err := ParseCode(s); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("ParseCode(%q): expected ErrInvalidCode, got %v", s, err)
		}
	}
}
