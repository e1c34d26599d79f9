// Package encryption wraps filippo.io/age for the optional shared-cache
// mirror encryption feature: encrypting a pushed cache artifact to a
// configured recipient, and decrypting a pulled one with a configured
// identity file.
package encryption

import (
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
)

// ParseRecipient parses a single age recipient string (an X25519 public
// key, e.g. "age1...") as configured by mirror.encrypt_recipient.
func ParseRecipient(s string) (age.Recipient, error) {
	recipients, err := age.ParseRecipients(strings.NewReader(s))
	if err != nil {
		return nil, fmt.Errorf("parsing age recipient: %w", err)
	}
	if len(recipients) != 1 {
		return nil, fmt.Errorf("expected exactly one age recipient, got %d", len(recipients))
	}
	return recipients[0], nil
}

// Encrypt copies r through an age-encrypted stream to w, addressed to
// recipient.
func Encrypt(recipient age.Recipient, r io.Reader, w io.Writer) error {
	encWriter, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}
	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return nil
}

// LoadIdentity reads an unencrypted age identity file (as produced by
// `age-keygen`) at path, as configured by mirror.identity_file.
func LoadIdentity(path string) (age.Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening identity file: %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parsing identity file: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in %s", path)
	}
	return identities[0], nil
}

// Decrypt reads an age-encrypted stream from r using identity and copies
// the plaintext to w.
func Decrypt(identity age.Identity, r io.Reader, w io.Writer) error {
	decReader, err := age.Decrypt(r, identity)
	if err != nil {
		return fmt.Errorf("creating decrypted reader: %w", err)
	}
	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}
	return nil
}
