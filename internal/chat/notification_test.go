package chat

import (
	"context"
	"strings"
	"testing"
)

func TestFanOutCompleteness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	chat, _ := svc.CreateChat(ctx, "team", true, "A", []string{"B", "C"})
	if _, err := svc.SendMessage(ctx, SendMessageInput{
		ChatID: chat.ID, SenderID: "A", SenderName: "alice", Content: "hi",
	}); err != nil {
		t.Fatal(err)
	}

	// One notification per non-sender member, zero for the sender.
	for uid, want := range map[string]int{"A": 0, "B": 1, "C": 1} {
		ns, err := svc.Notifications(ctx, uid)
		if err != nil {
			t.Fatal(err)
		}
		if len(ns) != want {
			t.Fatalf("expected %d notifications for %s, got %d", want, uid, len(ns))
		}
	}

	ns, _ := svc.Notifications(ctx, "B")
	n := ns[0]
	if n.Content != "hi" || n.SenderName != "alice" || n.ChatID != chat.ID || n.Read {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestFanOutFileContent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	chat, _ := svc.CreateChat(ctx, "pair", false, "A", []string{"B"})
	svc.SendMessage(ctx, SendMessageInput{
		ChatID: chat.ID, SenderID: "A", SenderName: "alice",
		FileURL: "/uploads/report.pdf", FileName: "report.pdf",
	})
	svc.SendMessage(ctx, SendMessageInput{
		ChatID: chat.ID, SenderID: "A", SenderName: "alice",
		FileURL: "/uploads/unnamed",
	})

	ns, err := svc.Notifications(ctx, "B")
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(ns))
	}
	// Newest first.
	if ns[0].Content != "alice sent a file: File" {
		t.Fatalf("unnamed file synthesis wrong: %q", ns[0].Content)
	}
	if ns[1].Content != "alice sent a file: report.pdf" {
		t.Fatalf("named file synthesis wrong: %q", ns[1].Content)
	}
}

func TestUnreadCountDerived(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	chat, _ := svc.CreateChat(ctx, "pair", false, "A", []string{"B"})

	count, err := svc.UnreadCount(ctx, "B")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}

	var lastID string
	for i := 0; i < 3; i++ {
		msg, _ := svc.SendMessage(ctx, SendMessageInput{
			ChatID: chat.ID, SenderID: "A", SenderName: "alice", Content: "m",
		})
		lastID = msg.ID
	}

	count, _ = svc.UnreadCount(ctx, "B")
	if count != 3 {
		t.Fatalf("expected 3 unread, got %d", count)
	}

	// Reading one message flips exactly its notification.
	if _, err := svc.MarkMessageRead(ctx, lastID, chat.ID, "B"); err != nil {
		t.Fatal(err)
	}
	count, _ = svc.UnreadCount(ctx, "B")
	if count != 2 {
		t.Fatalf("expected 2 unread after one read, got %d", count)
	}
}

func TestUnreadCountWindow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	chat, _ := svc.CreateChat(ctx, "pair", false, "A", []string{"B"})
	for i := 0; i < NotificationWindow+5; i++ {
		svc.SendMessage(ctx, SendMessageInput{
			ChatID: chat.ID, SenderID: "A", SenderName: "alice", Content: "m",
		})
	}

	// The count is derived from the fixed recent window, not the full list.
	count, err := svc.UnreadCount(ctx, "B")
	if err != nil {
		t.Fatal(err)
	}
	if count != NotificationWindow {
		t.Fatalf("expected %d, got %d", NotificationWindow, count)
	}
}

func TestMarkNotificationReadIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	chat, _ := svc.CreateChat(ctx, "pair", false, "A", []string{"B"})
	msg, _ := svc.SendMessage(ctx, SendMessageInput{
		ChatID: chat.ID, SenderID: "A", SenderName: "alice", Content: "hi",
	})

	if err := svc.MarkNotificationRead(ctx, "B", msg.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkNotificationRead(ctx, "B", msg.ID); err != nil {
		t.Fatal(err)
	}

	ns, _ := svc.Notifications(ctx, "B")
	if len(ns) != 1 || !ns[0].Read {
		t.Fatalf("notification not read after mark: %+v", ns)
	}
}

func TestMarkNotificationReadValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.MarkNotificationRead(ctx, "", "m1"); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := svc.MarkNotificationRead(ctx, "B", ""); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReadReceiptScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	chat, err := svc.CreateChat(ctx, "team", true, "A", []string{"B"})
	if err != nil {
		t.Fatal(err)
	}
	if len(chat.Members) != 2 || chat.Members[0] != "A" || chat.Members[1] != "B" {
		t.Fatalf("expected members [A B], got %v", chat.Members)
	}
	if chat.CreatedBy != "A" {
		t.Fatalf("expected createdBy A, got %q", chat.CreatedBy)
	}

	msg, err := svc.SendMessage(ctx, SendMessageInput{
		ChatID: chat.ID, SenderID: "A", SenderName: "alice", Content: "hi",
	})
	if err != nil {
		t.Fatal(err)
	}

	ns, err := svc.Notifications(ctx, "B")
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) != 1 || ns[0].Read || ns[0].Content != "hi" {
		t.Fatalf("expected one unread 'hi' notification, got %+v", ns)
	}

	if _, err := svc.MarkMessageRead(ctx, msg.ID, chat.ID, "B"); err != nil {
		t.Fatal(err)
	}

	ns, _ = svc.Notifications(ctx, "B")
	if !ns[0].Read {
		t.Fatal("notification not flipped to read")
	}
	count, _ := svc.UnreadCount(ctx, "B")
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}
}

func TestNotificationsSkipCorrupt(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	chat, _ := svc.CreateChat(ctx, "pair", false, "A", []string{"B"})
	svc.SendMessage(ctx, SendMessageInput{ChatID: chat.ID, SenderID: "A", SenderName: "alice", Content: "hi"})
	mr.Lpush("user:B:notifications", "{corrupt")

	ns, err := svc.Notifications(ctx, "B")
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) != 1 || ns[0].Content != "hi" {
		t.Fatalf("corrupt entry should be skipped, got %+v", ns)
	}
	for _, n := range ns {
		if strings.Contains(n.Content, "corrupt") {
			t.Fatal("corrupt entry leaked into results")
		}
	}
}
