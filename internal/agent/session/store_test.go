package session_test

import (
	"context"
	"testing"

	"github.com/gtm-labs/outreach-pipeline/internal/agent/session"
)

func openStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.Open(context.Background(), t.TempDir()+"/sessions.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestRecentWindowOrder(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	for i := 0; i < 5; i++ {
		err := store.Append(ctx, "s1",
			session.Message{Role: session.RoleUser, Text: string(rune('a' + i))},
			session.Message{Role: session.RoleModel, Text: string(rune('A' + i))},
		)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	// Last 2 exchanges = 4 messages, oldest first.
	got, err := store.Recent(ctx, "s1", 4)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d messages, want 4", len(got))
	}
	want := []session.Message{
		{Role: session.RoleUser, Text: "d"},
		{Role: session.RoleModel, Text: "D"},
		{Role: session.RoleUser, Text: "e"},
		{Role: session.RoleModel, Text: "E"},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d = %#v, want %#v", i, got[i], want[i])
		}
	}

	all, err := store.Recent(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("recent all: %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("got %d messages, want 10", len(all))
	}
	if all[0].Text != "a" || all[9].Text != "E" {
		t.Fatalf("full history out of order: first=%q last=%q", all[0].Text, all[9].Text)
	}
}

func TestSessionIsolation(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	if err := store.Append(ctx, "company_finder", session.Message{Role: session.RoleUser, Text: "find"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "email_writer", session.Message{Role: session.RoleUser, Text: "write"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.Recent(ctx, "company_finder", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].Text != "find" {
		t.Fatalf("history leaked across sessions: %#v", got)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	if err := store.Append(ctx, "s1", session.Message{Role: session.RoleUser, Text: "x"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err := store.Recent(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %#v", got)
	}
}

func TestAppendNothingIsNoop(t *testing.T) {
	store := openStore(t)
	if err := store.Append(context.Background(), "s1"); err != nil {
		t.Fatalf("empty append: %v", err)
	}
}
