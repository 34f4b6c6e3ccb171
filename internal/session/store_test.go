package session

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kayz/zonal/internal/execute"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetSession(t *testing.T) {
	store := testStore(t)

	sess, err := store.CreateSession(TypeChat, "morning check-in", "")
	if err != nil {
		t.Fatal(err)
	}
	if sess.ID == "" {
		t.Fatal("no id assigned")
	}

	got, err := store.GetSession(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != TypeChat || got.Title != "morning check-in" {
		t.Fatalf("got %+v", got)
	}

	if _, err := store.GetSession("missing"); err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func TestScheduledSessions(t *testing.T) {
	store := testStore(t)

	if _, err := store.CreateSession(TypeChat, "chat", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateSession(TypeAutomation, "no schedule", ""); err != nil {
		t.Fatal(err)
	}
	auto, err := store.CreateSession(TypeAutomation, "weekly summary", "0 8 * * 1")
	if err != nil {
		t.Fatal(err)
	}

	scheduled, err := store.ScheduledSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(scheduled) != 1 || scheduled[0].ID != auto.ID {
		t.Fatalf("got %+v", scheduled)
	}
}

func TestTranscriptAppendOnlyOrder(t *testing.T) {
	store := testStore(t)
	sess, err := store.CreateSession(TypeChat, "", "")
	if err != nil {
		t.Fatal(err)
	}

	// a burst well inside one second: created_at cannot break ties here,
	// ordering must come from the storage sequence
	const n = 12
	for i := 0; i < n; i++ {
		msg := &Message{SessionID: sess.ID, Sender: SenderUser, Content: fmt.Sprintf("msg-%02d", i)}
		if err := store.AppendMessage(msg); err != nil {
			t.Fatal(err)
		}
		if msg.ID == "" {
			t.Fatal("no message id assigned")
		}
	}

	msgs, err := store.Messages(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != n {
		t.Fatalf("got %d messages", len(msgs))
	}
	for i, msg := range msgs {
		if want := fmt.Sprintf("msg-%02d", i); msg.Content != want {
			t.Fatalf("position %d holds %q, want %q", i, msg.Content, want)
		}
	}
}

func TestMessageRoundTrip(t *testing.T) {
	store := testStore(t)
	sess, err := store.CreateSession(TypeAutomation, "", "0 8 * * *")
	if err != nil {
		t.Fatal(err)
	}

	err = store.AppendMessage(&Message{
		SessionID:         sess.ID,
		Sender:            SenderSystem,
		SystemType:        SystemCommandResults,
		Content:           "Created zone 'Health'",
		ExcludeFromPrompt: true,
		CommandResults: []execute.CommandResult{
			{SystemMessage: "Created zone 'Health'"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	msgs, err := store.Messages(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	got := msgs[0]
	if got.SystemType != SystemCommandResults || !got.ExcludeFromPrompt {
		t.Fatalf("got %+v", got)
	}
	if len(got.CommandResults) != 1 || got.CommandResults[0].SystemMessage != "Created zone 'Health'" {
		t.Fatalf("command results lost: %+v", got.CommandResults)
	}
}

func TestListSessions(t *testing.T) {
	store := testStore(t)
	if _, err := store.CreateSession(TypeChat, "first", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateSession(TypeChat, "second", ""); err != nil {
		t.Fatal(err)
	}

	sessions, err := store.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions", len(sessions))
	}
}
