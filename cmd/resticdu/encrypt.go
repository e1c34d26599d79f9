package main

import (
	"fmt"
	"os"

	"filippo.io/age"

	"resticdu/internal/encryption"
)

func encryptFile(srcPath, dstPath string, recipient age.Recipient) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dstPath, err)
	}
	defer dst.Close()

	if err := encryption.Encrypt(recipient, src, dst); err != nil {
		return fmt.Errorf("encrypting %s: %w", srcPath, err)
	}
	return nil
}

func decryptFile(srcPath, dstPath string, identity age.Identity) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dstPath, err)
	}
	defer dst.Close()

	if err := encryption.Decrypt(identity, src, dst); err != nil {
		return fmt.Errorf("decrypting %s: %w", srcPath, err)
	}
	return nil
}
