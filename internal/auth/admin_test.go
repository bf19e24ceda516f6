package auth

import (
	"context"
	"testing"

	"github.com/parleychat/parley/internal/models"
)

func TestAdminCreateUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.AdminCreateUser(ctx, "bob", "secret123", "")
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("empty role should default to user, got %q", user.Role)
	}

	mod, err := svc.AdminCreateUser(ctx, "mod", "secret123", models.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if mod.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %q", mod.Role)
	}

	if _, err := svc.AdminCreateUser(ctx, "bob", "again", ""); err != ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAdminUpdateUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.AdminCreateUser(ctx, "bob", "secret123", "")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.AdminUpdateUser(ctx, user.ID, AdminUpdate{
		Username: "robert",
		Password: "newsecret",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Username != "robert" || updated.Role != models.RoleAdmin {
		t.Fatalf("update not applied: %+v", updated)
	}

	// Old username freed, new credentials live.
	if _, err := svc.UserByUsername(ctx, "bob"); err != ErrUserNotFound {
		t.Fatalf("old username should be free, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "robert", "newsecret"); err != nil {
		t.Fatal("new password does not work")
	}
}

func TestAdminUpdateKeepsDigest(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, _ := svc.AdminCreateUser(ctx, "bob", "secret123", "")
	if _, err := svc.AdminUpdateUser(ctx, user.ID, AdminUpdate{Username: "bob"}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Login(ctx, "bob", "secret123"); err != nil {
		t.Fatal("empty password update must keep the old digest")
	}
}

func TestAdminDeleteUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.AdminCreateUser(ctx, "bob", "secret123", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.AdminDeleteUser(ctx, user.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UserByID(ctx, user.ID); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
	if _, err := svc.UserByUsername(ctx, "bob"); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}

	if err := svc.AdminDeleteUser(ctx, user.ID); err != ErrUserNotFound {
		t.Fatalf("deleting twice should report ErrUserNotFound, got %v", err)
	}
}
