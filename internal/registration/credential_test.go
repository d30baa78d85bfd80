package registration

import (
	"bytes"
	"errors"
	"testing"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestSealOpenCredential(t *testing.T) {
	plaintext := []byte("feeder-password-123")

	sealed, err := SealCredential(testKey, plaintext)
	if err != nil {
		t.Fatalf("SealCredential() error = %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("sealed blob contains plaintext")
	}

	opened, err := OpenCredential(testKey, sealed)
	if err != nil {
		t.Fatalf("OpenCredential() error = %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("OpenCredential() = %q, want %q", opened, plaintext)
	}
}

func TestSealCredential_UniqueNonces(t *testing.T) {
	a, err := SealCredential(testKey, []byte("same-input"))
	if err != nil {
		t.Fatalf("SealCredential() error = %v", err)
	}
	b, err := SealCredential(testKey, []byte("same-input"))
	if err != nil {
		t.Fatalf("SealCredential() error = %v", err)
	}

	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext produced identical blobs")
	}
}

func TestOpenCredential_WrongKey(t *testing.T) {
	sealed, err := SealCredential(testKey, []byte("secret"))
	if err != nil {
		t.Fatalf("SealCredential() error = %v", err)
	}

	otherKey := []byte("ffffffffffffffffffffffffffffffff")
	if _, err := OpenCredential(otherKey, sealed); !errors.Is(err, ErrCredentialInvalid) {
		t.Errorf("OpenCredential() with wrong key error = %v, want ErrCredentialInvalid", err)
	}
}

func TestOpenCredential_Tampered(t *testing.T) {
	sealed, err := SealCredential(testKey, []byte("secret"))
	if err != nil {
		t.Fatalf("SealCredential() error = %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff

	if _, err := OpenCredential(testKey, sealed); !errors.Is(err, ErrCredentialInvalid) {
		t.Errorf("OpenCredential() tampered error = %v, want ErrCredentialInvalid", err)
	}
}

func TestOpenCredential_Truncated(t *testing.T) {
	if _, err := OpenCredential(testKey, []byte("short")); !errors.Is(err, ErrCredentialInvalid) {
		t.Errorf("OpenCredential() truncated error = %v, want ErrCredentialInvalid", err)
	}
}

func TestSealCredential_BadKeyLength(t *testing.T) {
	if _, err := SealCredential([]byte("too-short"), []byte("x")); err == nil {
		t.Error("SealCredential() with short key succeeded, want error")
	}
}
