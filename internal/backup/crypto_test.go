package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if len(a) != saltSize {
		t.Errorf("salt length = %d, want %d", len(a), saltSize)
	}

	b, _ := GenerateSalt()
	if bytes.Equal(a, b) {
		t.Error("expected distinct salts")
	}
}

func TestDeriveKeyDeterminism(t *testing.T) {
	salt, _ := GenerateSalt()

	a := DeriveKey("passphrase", salt)
	b := DeriveKey("passphrase", salt)
	if !bytes.Equal(a, b) {
		t.Error("expected identical keys for identical inputs")
	}
	if len(a) != keySize {
		t.Errorf("key length = %d, want %d", len(a), keySize)
	}
}

func TestDeriveKeyDifferentPassphrases(t *testing.T) {
	salt, _ := GenerateSalt()

	a := DeriveKey("passphrase", salt)
	b := DeriveKey("other", salt)
	if bytes.Equal(a, b) {
		t.Error("expected different keys for different passphrases")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")
	dec := filepath.Join(dir, "restored.db")

	content := []byte("not actually a database, but good enough")
	if err := os.WriteFile(src, content, 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	salt, _ := GenerateSalt()
	if err := EncryptFile(src, enc, "hunter2", salt); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	encData, _ := os.ReadFile(enc)
	if bytes.Contains(encData, content) {
		t.Error("ciphertext contains plaintext")
	}

	if err := DecryptFile(enc, dec, "hunter2"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	restored, _ := os.ReadFile(dec)
	if !bytes.Equal(restored, content) {
		t.Error("round trip mismatch")
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")

	os.WriteFile(src, []byte("secret"), 0600)
	salt, _ := GenerateSalt()
	if err := EncryptFile(src, enc, "hunter2", salt); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if err := DecryptFile(enc, filepath.Join(dir, "out.db"), "wrong"); err == nil {
		t.Error("expected error with wrong passphrase")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")

	os.WriteFile(src, []byte("secret"), 0600)
	salt, _ := GenerateSalt()
	if err := EncryptFile(src, enc, "hunter2", salt); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	data, _ := os.ReadFile(enc)
	data[len(data)-1] ^= 0xff
	os.WriteFile(enc, data, 0600)

	if err := DecryptFile(enc, filepath.Join(dir, "out.db"), "hunter2"); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}

func TestDecryptFileTooSmall(t *testing.T) {
	dir := t.TempDir()
	enc := filepath.Join(dir, "tiny.enc")
	os.WriteFile(enc, []byte("short"), 0600)

	if err := DecryptFile(enc, filepath.Join(dir, "out.db"), "hunter2"); err == nil {
		t.Error("expected error for truncated file")
	}
}
