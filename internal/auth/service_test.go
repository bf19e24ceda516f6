package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/models"
	"github.com/parleychat/parley/internal/store"
)

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st := store.NewFromClient(client, zerolog.Nop())
	return NewService(st, zerolog.Nop()), mr
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, sessionID, err := svc.Register(ctx, "alice", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID == "" {
		t.Fatal("expected a user id")
	}
	if user.Username != "alice" {
		t.Fatalf("expected alice, got %q", user.Username)
	}
	if user.Role != models.RoleUser {
		t.Fatalf("expected role user, got %q", user.Role)
	}
	if user.Password == "secret123" {
		t.Fatal("password must be stored as a digest")
	}
	if len(sessionID) != 32 {
		t.Fatalf("expected 32-char session token, got %d chars", len(sessionID))
	}

	// The session must resolve back to the user.
	got, err := svc.CurrentUser(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatal("session did not resolve to the registered user")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "alice", "secret123"); err != nil {
		t.Fatal(err)
	}
	_, _, err := svc.Register(ctx, "alice", "other")
	if err != ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "", "pw"); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := svc.Register(ctx, "bob", ""); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "alice", "secret123")
	if err != nil {
		t.Fatal(err)
	}

	user, sessionID, err := svc.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != registered.ID {
		t.Fatal("login returned a different user")
	}
	if sessionID == "" {
		t.Fatal("expected a session token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Register(ctx, "alice", "secret123")
	_, _, err := svc.Login(ctx, "alice", "wrong")
	if err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	// Unknown usernames and bad passwords are indistinguishable.
	_, _, err := svc.Login(context.Background(), "nobody", "whatever")
	if err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, sessionID, err := svc.Register(ctx, "alice", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, sessionID); err != nil {
		t.Fatal(err)
	}

	user, err := svc.CurrentUser(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if user != nil {
		t.Fatal("session should be gone after logout")
	}

	// Logging out again is a no-op.
	if err := svc.Logout(ctx, sessionID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, ""); err != nil {
		t.Fatal(err)
	}
}

func TestSessionExpiry(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	_, sessionID, err := svc.Register(ctx, "alice", "secret123")
	if err != nil {
		t.Fatal(err)
	}

	mr.FastForward(SessionTTL + time.Minute)

	user, err := svc.CurrentUser(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if user != nil {
		t.Fatal("expired session should resolve to anonymous")
	}
}

func TestCurrentUserAnonymous(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.CurrentUser(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if user != nil {
		t.Fatal("empty session id should be anonymous, not an error")
	}
}

func TestUserByIDIndexFallback(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "alice", "secret123")
	if err != nil {
		t.Fatal(err)
	}

	// Simulate a record written before the id index existed.
	if err := svc.store.HDel(ctx, store.KeyUserIDs, user.ID); err != nil {
		t.Fatal(err)
	}

	got, err := svc.UserByID(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Username != "alice" {
		t.Fatalf("scan fallback returned %q", got.Username)
	}

	// The scan must have repaired the index.
	username, found, err := svc.store.HGet(ctx, store.KeyUserIDs, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !found || username != "alice" {
		t.Fatal("id index was not repaired")
	}
}

func TestUserByIDNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UserByID(context.Background(), "nope")
	if err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateProfileUsernameRekey(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "alice", "secret123")
	if err != nil {
		t.Fatal(err)
	}

	newName := "alicia"
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdate{Username: &newName})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Username != "alicia" {
		t.Fatalf("expected alicia, got %q", updated.Username)
	}

	// Old hash key must be gone, new one present, id unchanged.
	if _, err := svc.UserByUsername(ctx, "alice"); err != ErrUserNotFound {
		t.Fatalf("old username should be free, got %v", err)
	}
	got, err := svc.UserByUsername(ctx, "alicia")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != user.ID {
		t.Fatal("rename changed the user id")
	}
	byID, err := svc.UserByID(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if byID.Username != "alicia" {
		t.Fatal("id index still points at the old username")
	}
}

func TestUpdateProfileUsernameTaken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice, _, _ := svc.Register(ctx, "alice", "secret123")
	svc.Register(ctx, "bob", "secret123")

	taken := "bob"
	_, err := svc.UpdateProfile(ctx, alice.ID, ProfileUpdate{Username: &taken})
	if err != ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestListUsersSkipsCorrupt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Register(ctx, "alice", "secret123")
	if err := svc.store.HSet(ctx, store.KeyUsers, "broken", "{not json"); err != nil {
		t.Fatal(err)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].Username != "alice" {
		t.Fatalf("expected only alice, got %v", users)
	}
}

func TestListUsersStripsCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Register(ctx, "alice", "secret123")
	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}

	data, _ := json.Marshal(users[0])
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	if _, ok := raw["password"]; ok {
		t.Fatal("public user listing must not carry the password digest")
	}
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "adminpw"); err != nil {
		t.Fatal(err)
	}
	admin, err := svc.UserByUsername(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if admin.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %q", admin.Role)
	}

	// Seeding again must not replace the account.
	if err := svc.EnsureAdmin(ctx, "otherpw"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Login(ctx, "admin", "adminpw"); err != nil {
		t.Fatal("original admin password stopped working")
	}
}

func TestUsernameTaken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	taken, err := svc.UsernameTaken(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if taken {
		t.Fatal("unregistered name reported taken")
	}

	svc.Register(ctx, "alice", "secret123")
	taken, _ = svc.UsernameTaken(ctx, "alice")
	if !taken {
		t.Fatal("registered name reported free")
	}
}
