package store

import (
	"testing"
	"time"

	"github.com/rfoxall/otpgate/internal/database"
	"github.com/rfoxall/otpgate/internal/model"
)

func setupPendingTestDB(t *testing.T) *PendingStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPendingStore(db)
}

func TestPendingRegistrationSaveGet(t *testing.T) {
	ps := setupPendingTestDB(t)

	err := ps.SaveRegistration(&model.PendingRegistration{
		Identifier: "ada@x.com",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      strPtr("ada@x.com"),
		Code:       "482913",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	p, err := ps.GetRegistration("ada@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p == nil {
		t.Fatal("expected pending registration")
	}
	if p.FirstName != "Ada" || p.LastName != "Lovelace" {
		t.Errorf("name = %q %q, want Ada Lovelace", p.FirstName, p.LastName)
	}
	if p.Code != "482913" {
		t.Errorf("code = %q, want 482913", p.Code)
	}
	if p.Phone != nil {
		t.Errorf("phone = %v, want nil", p.Phone)
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected created_at to be stamped")
	}
}

func TestPendingRegistrationSupersede(t *testing.T) {
	ps := setupPendingTestDB(t)

	ps.SaveRegistration(&model.PendingRegistration{
		Identifier: "ada@x.com",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      strPtr("ada@x.com"),
		Code:       "111111",
	})
	// Re-registering the same identifier replaces the old row.
	err := ps.SaveRegistration(&model.PendingRegistration{
		Identifier: "ada@x.com",
		FirstName:  "Augusta",
		LastName:   "King",
		Email:      strPtr("ada@x.com"),
		Code:       "222222",
	})
	if err != nil {
		t.Fatalf("supersede: %v", err)
	}

	p, _ := ps.GetRegistration("ada@x.com")
	if p.FirstName != "Augusta" || p.Code != "222222" {
		t.Errorf("got %q/%q, want superseded Augusta/222222", p.FirstName, p.Code)
	}
}

func TestPendingRegistrationGetMissing(t *testing.T) {
	ps := setupPendingTestDB(t)

	p, err := ps.GetRegistration("nobody@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p != nil {
		t.Error("expected nil for missing row")
	}
}

func TestPendingRegistrationDelete(t *testing.T) {
	ps := setupPendingTestDB(t)

	ps.SaveRegistration(&model.PendingRegistration{
		Identifier: "ada@x.com",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      strPtr("ada@x.com"),
		Code:       "482913",
	})
	if err := ps.DeleteRegistration("ada@x.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	p, _ := ps.GetRegistration("ada@x.com")
	if p != nil {
		t.Error("expected nil after delete")
	}
}

func TestPendingLoginSaveGetDelete(t *testing.T) {
	ps := setupPendingTestDB(t)

	if err := ps.SaveLogin("ada@x.com", "user-1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	p, err := ps.GetLogin("ada@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p == nil || p.UserID != "user-1" {
		t.Fatalf("got %v, want user-1", p)
	}

	// A new attempt for the same identifier supersedes the old row.
	if err := ps.SaveLogin("ada@x.com", "user-2"); err != nil {
		t.Fatalf("supersede: %v", err)
	}
	p, _ = ps.GetLogin("ada@x.com")
	if p.UserID != "user-2" {
		t.Errorf("user_id = %q, want user-2", p.UserID)
	}

	if err := ps.DeleteLogin("ada@x.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	p, _ = ps.GetLogin("ada@x.com")
	if p != nil {
		t.Error("expected nil after delete")
	}
}

func TestPendingDeleteStale(t *testing.T) {
	ps := setupPendingTestDB(t)

	ps.SaveRegistration(&model.PendingRegistration{
		Identifier: "old@x.com",
		FirstName:  "Old",
		LastName:   "Row",
		Email:      strPtr("old@x.com"),
		Code:       "111111",
	})
	ps.SaveLogin("stale@x.com", "user-1")
	ps.SaveLogin("fresh@x.com", "user-2")

	cutoff := time.Now().UTC().Add(-48 * time.Hour)
	for _, table := range []string{"pending_registrations", "pending_logins"} {
		_, err := ps.db.Exec(
			`UPDATE `+table+` SET created_at = ? WHERE identifier IN (?, ?)`,
			cutoff, "old@x.com", "stale@x.com",
		)
		if err != nil {
			t.Fatalf("backdate %s: %v", table, err)
		}
	}

	count, err := ps.DeleteStale(24 * time.Hour)
	if err != nil {
		t.Fatalf("delete stale: %v", err)
	}
	if count != 2 {
		t.Errorf("deleted = %d, want 2", count)
	}

	if p, _ := ps.GetLogin("fresh@x.com"); p == nil {
		t.Error("expected fresh pending login to survive")
	}
	if p, _ := ps.GetRegistration("old@x.com"); p != nil {
		t.Error("expected stale pending registration to be removed")
	}
}
