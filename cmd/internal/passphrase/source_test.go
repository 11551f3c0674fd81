package passphrase

import (
	"io"
	"testing"
)

func TestSourcePrefersEnvironment(t *testing.T) {
	t.Setenv("SPLITPAY_TEST_PASS", "from-env")
	src := NewSource("SPLITPAY_TEST_PASS")
	src.isTerminal = func() bool { t.Fatal("terminal must not be consulted"); return false }
	got, err := src.Get()
	if err != nil || got != "from-env" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}
}

func TestSourceRejectsEmptyEnvironment(t *testing.T) {
	t.Setenv("SPLITPAY_TEST_PASS", "  ")
	if _, err := NewSource("SPLITPAY_TEST_PASS").Get(); err == nil {
		t.Fatalf("expected error for blank passphrase")
	}
}

func TestSourceConfirmation(t *testing.T) {
	answers := []string{"secret", "other"}
	src := NewSource("").WithConfirmation()
	src.isTerminal = func() bool { return true }
	src.prompt = io.Discard
	src.readSecret = func() ([]byte, error) {
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
	if _, err := src.Get(); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestSourceWithoutTerminal(t *testing.T) {
	src := NewSource("")
	src.isTerminal = func() bool { return false }
	if _, err := src.Get(); err == nil {
		t.Fatalf("expected error without terminal")
	}
}
