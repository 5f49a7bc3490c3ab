package backup

import (
	"path/filepath"
	"testing"

	"github.com/rfoxall/otpgate/internal/database"
	"github.com/rfoxall/otpgate/internal/store"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "auth.db")
	encPath := filepath.Join(dir, "auth.db.enc")
	restoredPath := filepath.Join(dir, "restored.db")

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	email := "ada@x.com"
	users := store.NewUserStore(db)
	created, err := users.Create("Ada", "Lovelace", &email, nil)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if err := Snapshot(db, dbPath, encPath, "hunter2"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	db.Close()

	if err := Restore(encPath, restoredPath, "hunter2"); err != nil {
		t.Fatalf("restore: %v", err)
	}

	restored, err := database.Open(restoredPath)
	if err != nil {
		t.Fatalf("open restored db: %v", err)
	}
	defer restored.Close()

	u, err := store.NewUserStore(restored).GetByID(created.ID)
	if err != nil {
		t.Fatalf("get user from restored db: %v", err)
	}
	if u == nil || u.Email == nil || *u.Email != email {
		t.Errorf("restored user = %v, want email %q", u, email)
	}
}
