package crypto

import (
	"errors"
	"testing"
)

func TestCipher_SealOpenRoundTrip(t *testing.T) {
	t.Parallel()

	c := Cipher(NewKey())
	token, err := c.SealEntryRef("entry-1", "raffle-1")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	entryID, raffleID, err := c.OpenEntryRef(token)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if entryID != "entry-1" || raffleID != "raffle-1" {
		t.Fatalf("unexpected ref %s/%s", entryID, raffleID)
	}
}

func TestCipher_RejectsTamperedToken(t *testing.T) {
	t.Parallel()

	c := Cipher(NewKey())
	token, err := c.SealEntryRef("entry-1", "raffle-1")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	flipped := []byte(token)
	if flipped[len(flipped)-1] == '0' {
		flipped[len(flipped)-1] = '1'
	} else {
		flipped[len(flipped)-1] = '0'
	}
	if _, _, err := c.OpenEntryRef(string(flipped)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	other := Cipher(NewKey())
	if _, _, err := other.OpenEntryRef(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken with other key, got %v", err)
	}
	if _, _, err := c.OpenEntryRef("not-hex"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestCipher_InvalidKey(t *testing.T) {
	t.Parallel()

	if err := Cipher("abcd").Validate(); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := Cipher("zz").SealEntryRef("e", "r"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
