package backup

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	original := []byte("room 101 chore history")

	sealed, err := Seal(original, "passphrase")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if len(sealed) <= saltSize+nonceSize {
		t.Fatalf("sealed length = %d, want header plus ciphertext", len(sealed))
	}
	if bytes.Contains(sealed, original) {
		t.Error("sealed data contains the plaintext")
	}

	got, err := Open(sealed, "passphrase")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("opened = %q, want %q", got, original)
	}
}

func TestSealUsesFreshSalt(t *testing.T) {
	a, err := Seal([]byte("same"), "passphrase")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	b, err := Seal([]byte("same"), "passphrase")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Equal(a[:saltSize], b[:saltSize]) {
		t.Error("two seals share a salt")
	}
	if bytes.Equal(a, b) {
		t.Error("two seals of the same input are identical")
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	sealed, err := Seal([]byte("secret data"), "correct-password")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := Open(sealed, "wrong-password"); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}
}

func TestOpenTampered(t *testing.T) {
	sealed, err := Seal([]byte("secret data"), "password")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	sealed[saltSize+nonceSize+1] ^= 0xFF

	if _, err := Open(sealed, "password"); err == nil {
		t.Fatal("expected error with tampered ciphertext")
	}
}

func TestOpenTooSmall(t *testing.T) {
	_, err := Open(make([]byte, saltSize+nonceSize-1), "password")
	if !errors.Is(err, ErrShortCiphertext) {
		t.Errorf("err = %v, want ErrShortCiphertext", err)
	}
}

func TestEncryptDecryptFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	encPath := filepath.Join(dir, "source.db.enc")
	decPath := filepath.Join(dir, "decrypted.db")

	original := []byte("")
	if err := os.WriteFile(srcPath, original, 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := EncryptFile(srcPath, encPath, "password"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := DecryptFile(encPath, decPath, "password"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}

	got, err := os.ReadFile(decPath)
	if err != nil {
		t.Fatalf("read decrypted: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("decrypted = %q, want empty", got)
	}
}
