package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resticdu/internal/encryption"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Push or pull the aggregation cache to/from the configured shared mirror",
}

var mirrorPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Snapshot the local cache and push it to the mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.Mirror == nil {
			return fmt.Errorf("mirror is not configured")
		}

		snapshot, err := os.CreateTemp("", "resticdu-mirror-push-*.db")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		snapshotPath := snapshot.Name()
		snapshot.Close()
		defer os.Remove(snapshotPath)

		if err := a.Cache.SnapshotTo(snapshotPath); err != nil {
			return fmt.Errorf("snapshotting cache: %w", err)
		}

		pushPath := snapshotPath

		mcfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		if mcfg.Mirror.Encrypt {
			recipient, err := encryption.ParseRecipient(mcfg.Mirror.EncryptRecipient)
			if err != nil {
				return fmt.Errorf("parsing mirror.encrypt_recipient: %w", err)
			}
			encPath := snapshotPath + ".age"
			if err := encryptFile(snapshotPath, encPath, recipient); err != nil {
				return err
			}
			defer os.Remove(encPath)
			pushPath = encPath
		}

		f, err := os.Open(pushPath)
		if err != nil {
			return fmt.Errorf("opening snapshot for push: %w", err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat snapshot: %w", err)
		}

		if err := a.Mirror.Push(f, info.Size()); err != nil {
			return fmt.Errorf("pushing to mirror: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "pushed %d bytes to mirror\n", info.Size())
		return nil
	},
}

var mirrorPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull the mirror's cache artifact and replace the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		mcfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		localPath := a.Cache.Path()
		if err := a.Close(); err != nil {
			return fmt.Errorf("closing local cache before pull: %w", err)
		}
		if a.Mirror == nil {
			return fmt.Errorf("mirror is not configured")
		}

		pulled, err := os.CreateTemp("", "resticdu-mirror-pull-*.db")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		pulledPath := pulled.Name()
		defer os.Remove(pulledPath)

		if err := a.Mirror.Pull(pulled); err != nil {
			pulled.Close()
			return fmt.Errorf("pulling from mirror: %w", err)
		}
		pulled.Close()

		finalPath := pulledPath
		if mcfg.Mirror.Encrypt {
			identity, err := encryption.LoadIdentity(mcfg.Mirror.IdentityFile)
			if err != nil {
				return fmt.Errorf("loading mirror.identity_file: %w", err)
			}
			decPath := pulledPath + ".dec"
			if err := decryptFile(pulledPath, decPath, identity); err != nil {
				return err
			}
			defer os.Remove(decPath)
			finalPath = decPath
		}

		if err := os.Rename(finalPath, localPath); err != nil {
			return fmt.Errorf("installing pulled cache at %s: %w", localPath, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "pulled cache from mirror into %s\n", localPath)
		return nil
	},
}

func init() {
	mirrorCmd.AddCommand(mirrorPushCmd)
	mirrorCmd.AddCommand(mirrorPullCmd)
}
