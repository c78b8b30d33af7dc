package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cimillas/charity-raffle/internal/crypto"
	"golang.org/x/crypto/bcrypt"
)

func runRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := runRoot(t, "hunter2\n", "hash-password", "--cost", "4")
	if err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	hash := strings.TrimSpace(out)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")); err != nil {
		t.Fatalf("hash does not match password: %v", err)
	}
}

func TestHashPassword_Empty(t *testing.T) {
	if _, err := runRoot(t, "\n", "hash-password"); err == nil {
		t.Fatal("expected error for empty password")
	}
	if _, err := runRoot(t, "", "hash-password"); err == nil {
		t.Fatal("expected error for missing stdin")
	}
}

func TestKeygen(t *testing.T) {
	out, err := runRoot(t, "", "keygen")
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	if err := crypto.Cipher(strings.TrimSpace(out)).Validate(); err != nil {
		t.Fatalf("expected usable key, got %v", err)
	}
}

func TestDraw_RequiresRaffleID(t *testing.T) {
	if _, err := runRoot(t, "", "draw"); err == nil {
		t.Fatal("expected argument error")
	}
}
