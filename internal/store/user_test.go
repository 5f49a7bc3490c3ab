package store

import (
	"testing"

	"github.com/rfoxall/otpgate/internal/database"
	"github.com/rfoxall/otpgate/internal/model"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func strPtr(s string) *string { return &s }

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("Ada", "Lovelace", strPtr("ada@x.com"), nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == "" {
		t.Error("expected non-empty id")
	}
	if u.FirstName != "Ada" || u.LastName != "Lovelace" {
		t.Errorf("name = %q %q, want Ada Lovelace", u.FirstName, u.LastName)
	}
	if u.Email == nil || *u.Email != "ada@x.com" {
		t.Errorf("email = %v, want ada@x.com", u.Email)
	}
	if u.Phone != nil {
		t.Errorf("phone = %v, want nil", u.Phone)
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be stamped")
	}
}

func TestUserCreatePhoneOnly(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("Ada", "Lovelace", nil, strPtr("+15551234567"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != nil {
		t.Errorf("email = %v, want nil", u.Email)
	}
	if u.Phone == nil || *u.Phone != "+15551234567" {
		t.Errorf("phone = %v, want +15551234567", u.Phone)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("Ada", "Lovelace", strPtr("ada@x.com"), nil); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("Other", "Person", strPtr("ada@x.com"), nil); err == nil {
		t.Fatal("expected error for duplicate email, got nil")
	}
}

func TestUserCreateDuplicatePhone(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("Ada", "Lovelace", nil, strPtr("+15551234567")); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("Other", "Person", nil, strPtr("+15551234567")); err == nil {
		t.Fatal("expected error for duplicate phone, got nil")
	}
}

func TestUserGetByID(t *testing.T) {
	us := setupUserTestDB(t)

	created, err := us.Create("Ada", "Lovelace", strPtr("ada@x.com"), nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	u, err := us.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.ID != created.ID {
		t.Errorf("id = %q, want %q", u.ID, created.ID)
	}
}

func TestUserGetByIDNotFound(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.GetByID("no-such-id")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u != nil {
		t.Error("expected nil for nonexistent user")
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("Ada", "Lovelace", strPtr("ada@x.com"), nil)

	u, err := us.GetByEmail("ada@x.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil || u.ID != created.ID {
		t.Fatalf("got %v, want user %q", u, created.ID)
	}
}

func TestUserGetByPhone(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("Ada", "Lovelace", nil, strPtr("+15551234567"))

	u, err := us.GetByPhone("+15551234567")
	if err != nil {
		t.Fatalf("get by phone: %v", err)
	}
	if u == nil || u.ID != created.ID {
		t.Fatalf("got %v, want user %q", u, created.ID)
	}
}

func TestUserExists(t *testing.T) {
	us := setupUserTestDB(t)

	us.Create("Ada", "Lovelace", strPtr("ada@x.com"), nil)

	exists, err := us.Exists(strPtr("ada@x.com"), nil)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Error("expected exists = true for registered email")
	}

	exists, err = us.Exists(strPtr("bob@x.com"), strPtr("+15550000000"))
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("expected exists = false for unknown contacts")
	}

	exists, err = us.Exists(nil, nil)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("expected exists = false with no criteria")
	}
}

func TestUserUpdateMergesNonNilFields(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("Ada", "Lovelace", strPtr("ada@x.com"), nil)

	u, err := us.Update(created.ID, model.UserUpdate{
		FirstName: strPtr("Augusta"),
		Phone:     strPtr("+15551234567"),
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if u.FirstName != "Augusta" {
		t.Errorf("first_name = %q, want Augusta", u.FirstName)
	}
	if u.LastName != "Lovelace" {
		t.Errorf("last_name = %q, want Lovelace (untouched)", u.LastName)
	}
	if u.Email == nil || *u.Email != "ada@x.com" {
		t.Errorf("email = %v, want ada@x.com (untouched)", u.Email)
	}
	if u.Phone == nil || *u.Phone != "+15551234567" {
		t.Errorf("phone = %v, want +15551234567", u.Phone)
	}
	if !u.UpdatedAt.After(created.UpdatedAt) && !u.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("updated_at = %v, want >= %v", u.UpdatedAt, created.UpdatedAt)
	}
}

func TestUserUpdateNotFound(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Update("no-such-id", model.UserUpdate{FirstName: strPtr("Ada")})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown id")
	}
}
