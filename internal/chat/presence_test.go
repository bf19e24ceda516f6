package chat

import (
	"context"
	"testing"
)

func TestPresenceDefaultOffline(t *testing.T) {
	svc, _ := newTestService(t)

	online, err := svc.Presence(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if online {
		t.Fatal("unknown user should be offline")
	}
}

func TestSetPresenceLastWriteWins(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SetPresence(ctx, "A", true); err != nil {
		t.Fatal(err)
	}
	online, _ := svc.Presence(ctx, "A")
	if !online {
		t.Fatal("expected online")
	}

	if err := svc.SetPresence(ctx, "A", false); err != nil {
		t.Fatal(err)
	}
	online, _ = svc.Presence(ctx, "A")
	if online {
		t.Fatal("expected offline after overwrite")
	}
}

func TestPresenceBulk(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.SetPresence(ctx, "A", true)
	svc.SetPresence(ctx, "B", false)

	flags, err := svc.PresenceBulk(ctx, []string{"A", "B", "C"})
	if err != nil {
		t.Fatal(err)
	}
	if !flags["A"] || flags["B"] || flags["C"] {
		t.Fatalf("unexpected flags: %v", flags)
	}
	if len(flags) != 3 {
		t.Fatalf("expected an entry per requested id, got %v", flags)
	}
}
