package backup

import (
	"database/sql"
	"fmt"
	"io"
	"os"
)

// Snapshot checkpoints the WAL and writes an encrypted copy of the
// database file to dstPath, protected by the passphrase.
func Snapshot(db *sql.DB, dbPath, dstPath, passphrase string) error {
	if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpoint wal: %w", err)
	}

	tmp, err := os.CreateTemp("", "otpgate-backup-*.db")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := copyFile(dbPath, tmpPath); err != nil {
		return err
	}

	salt, err := GenerateSalt()
	if err != nil {
		return err
	}
	return EncryptFile(tmpPath, dstPath, passphrase, salt)
}

// Restore decrypts an encrypted snapshot onto dbPath. The server must
// not be running against the file while this happens.
func Restore(srcPath, dbPath, passphrase string) error {
	return DecryptFile(srcPath, dbPath, passphrase)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return out.Sync()
}
