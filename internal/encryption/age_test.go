package encryption

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"filippo.io/age"
)

func writeIdentityFile(t *testing.T, identity *age.X25519Identity) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "identity.txt")
	if err := os.WriteFile(path, []byte(identity.String()+"\n"), 0600); err != nil {
		t.Fatalf("writing identity file: %v", err)
	}
	return path
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("GenerateX25519Identity() error = %v", err)
	}

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "simple text", input: []byte("hello world")},
		{name: "empty", input: []byte{}},
		{name: "binary data", input: []byte{0x00, 0xff, 0x01, 0xfe}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var encrypted bytes.Buffer
			if err := Encrypt(identity.Recipient(), bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(tt.input) > 0 && bytes.Equal(encrypted.Bytes(), tt.input) {
				t.Error("encrypted output is identical to plaintext")
			}

			var decrypted bytes.Buffer
			if err := Decrypt(identity, bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestDecryptWrongIdentityFails(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("GenerateX25519Identity() error = %v", err)
	}
	other, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("GenerateX25519Identity() error = %v", err)
	}

	var encrypted bytes.Buffer
	if err := Encrypt(identity.Recipient(), bytes.NewReader([]byte("secret")), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	var out bytes.Buffer
	if err := Decrypt(other, bytes.NewReader(encrypted.Bytes()), &out); err == nil {
		t.Error("Decrypt() with wrong identity should return error")
	}
}

func TestParseRecipientRoundTrip(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("GenerateX25519Identity() error = %v", err)
	}

	recipient, err := ParseRecipient(identity.Recipient().String())
	if err != nil {
		t.Fatalf("ParseRecipient() error = %v", err)
	}

	var encrypted, decrypted bytes.Buffer
	if err := Encrypt(recipient, bytes.NewReader([]byte("payload")), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if err := Decrypt(identity, bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if decrypted.String() != "payload" {
		t.Errorf("decrypted = %q, want %q", decrypted.String(), "payload")
	}
}

func TestParseRecipientRejectsMultiple(t *testing.T) {
	id1, _ := age.GenerateX25519Identity()
	id2, _ := age.GenerateX25519Identity()
	both := id1.Recipient().String() + "\n" + id2.Recipient().String()

	if _, err := ParseRecipient(both); err == nil {
		t.Error("ParseRecipient() with two recipients should return error")
	}
}

func TestLoadIdentity(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("GenerateX25519Identity() error = %v", err)
	}
	path := writeIdentityFile(t, identity)

	loaded, err := LoadIdentity(path)
	if err != nil {
		t.Fatalf("LoadIdentity() error = %v", err)
	}

	var encrypted, decrypted bytes.Buffer
	if err := Encrypt(identity.Recipient(), bytes.NewReader([]byte("via file")), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if err := Decrypt(loaded, bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if decrypted.String() != "via file" {
		t.Errorf("decrypted = %q, want %q", decrypted.String(), "via file")
	}
}

func TestLoadIdentityMissingFile(t *testing.T) {
	if _, err := LoadIdentity("/nonexistent/identity.txt"); err == nil {
		t.Error("LoadIdentity() for missing file should return error")
	}
}
