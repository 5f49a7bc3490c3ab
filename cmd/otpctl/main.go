// otpctl is the offline maintenance tool: sweep expired credentials,
// take an encrypted snapshot of the database, or restore one.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rfoxall/otpgate/internal/auth"
	"github.com/rfoxall/otpgate/internal/backup"
	"github.com/rfoxall/otpgate/internal/config"
	"github.com/rfoxall/otpgate/internal/database"
	"github.com/rfoxall/otpgate/internal/logging"
	"github.com/rfoxall/otpgate/internal/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: otpctl <command> [flags]

Commands:
  cleanup              delete expired sessions/codes and stale pending rows
  backup -out FILE     write an encrypted snapshot of the database
  restore -in FILE     restore the database from an encrypted snapshot

The passphrase for backup/restore is read from OTPGATE_BACKUP_PASSPHRASE.
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.Setup(cfg.LogLevel)

	switch os.Args[1] {
	case "cleanup":
		db, err := database.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		svc := auth.NewService(
			store.NewUserStore(db),
			store.NewSessionStore(db, cfg.SessionTTL),
			store.NewOTPStore(db, cfg.OTPTTL),
			store.NewPendingStore(db),
			nil,
			logger.With("component", "cleanup"),
		)
		if err := svc.Cleanup(); err != nil {
			log.Fatalf("cleanup: %v", err)
		}
		fmt.Println("cleanup complete")

	case "backup":
		fs := flag.NewFlagSet("backup", flag.ExitOnError)
		out := fs.String("out", "", "destination file for the encrypted snapshot")
		fs.Parse(os.Args[2:])
		if *out == "" {
			usage()
		}
		passphrase := os.Getenv("OTPGATE_BACKUP_PASSPHRASE")
		if passphrase == "" {
			log.Fatal("OTPGATE_BACKUP_PASSPHRASE is required")
		}

		db, err := database.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := backup.Snapshot(db, cfg.DBPath, *out, passphrase); err != nil {
			log.Fatalf("backup: %v", err)
		}
		fmt.Printf("encrypted snapshot written to %s\n", *out)

	case "restore":
		fs := flag.NewFlagSet("restore", flag.ExitOnError)
		in := fs.String("in", "", "encrypted snapshot to restore from")
		fs.Parse(os.Args[2:])
		if *in == "" {
			usage()
		}
		passphrase := os.Getenv("OTPGATE_BACKUP_PASSPHRASE")
		if passphrase == "" {
			log.Fatal("OTPGATE_BACKUP_PASSPHRASE is required")
		}

		if err := backup.Restore(*in, cfg.DBPath, passphrase); err != nil {
			log.Fatalf("restore: %v", err)
		}
		fmt.Printf("database restored from %s\n", *in)

	default:
		usage()
	}
}
