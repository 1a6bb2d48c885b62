package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func strptr(s string) *string {
	return &s
}

func TestSqliteAppendThenRecent(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "hi", strptr("hello!"), "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "m1", "bye", strptr("goodbye!"), "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	turns, err := store.Recent(ctx, "Default", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}

	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].UserMessage != "bye" {
		t.Errorf("expected newest turn first ('bye'), got %q", turns[0].UserMessage)
	}
	if turns[1].UserMessage != "hi" {
		t.Errorf("expected oldest turn last ('hi'), got %q", turns[1].UserMessage)
	}
	if turns[0].ID <= turns[1].ID {
		t.Errorf("expected strictly increasing ids by insertion order, got %d then %d", turns[1].ID, turns[0].ID)
	}
	if turns[0].Timestamp == "" {
		t.Error("expected store-assigned timestamp")
	}
}

func TestSqliteSessionIsolation(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "only in A", strptr("reply"), "A"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	turns, err := store.Recent(ctx, "B", 50)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected no turns in session B, got %d", len(turns))
	}

	matches, err := store.Search(ctx, "only", "B")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no search matches in session B, got %d", len(matches))
	}
}

func TestSqliteClearIdempotent(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "hello", strptr("hi"), "A"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "m1", "hello", strptr("hi"), "B"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	// Second clear on an already-empty store must also succeed.
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}

	for _, session := range []string{"A", "B", "Default"} {
		turns, err := store.Recent(ctx, session, 50)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(turns) != 0 {
			t.Errorf("expected session %q empty after Clear, got %d turns", session, len(turns))
		}
	}
}

func TestSqliteClearSpansAllSessions(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "in work", nil, "work"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "m1", "in play", nil, "play"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected no sessions after global Clear, got %v", sessions)
	}
}

func TestSqliteClearSessionScoped(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "keep me", nil, "keep"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "m1", "drop me", nil, "drop"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if err := store.ClearSession(ctx, "drop"); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}

	kept, err := store.Recent(ctx, "keep", 50)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("expected untouched session to keep its turn, got %d turns", len(kept))
	}

	dropped, err := store.Recent(ctx, "drop", 50)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(dropped) != 0 {
		t.Errorf("expected cleared session to be empty, got %d turns", len(dropped))
	}
}

func TestSqliteRecentRespectsLimit(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, "m1", "msg", strptr("reply"), "Default"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	turns, err := store.Recent(ctx, "Default", 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 3 {
		t.Errorf("expected 3 turns with limit 3, got %d", len(turns))
	}
}

func TestSqliteRecentZeroLimit(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "msg", nil, "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	for _, limit := range []int{0, -1} {
		turns, err := store.Recent(ctx, "Default", limit)
		if err != nil {
			t.Fatalf("Recent with limit %d failed: %v", limit, err)
		}
		if len(turns) != 0 {
			t.Errorf("expected no turns with limit %d, got %d", limit, len(turns))
		}
	}
}

func TestSqliteSearch(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "the quick fox", strptr("jumps"), "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "m1", "unrelated", strptr("still unrelated"), "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	matches, err := store.Search(ctx, "quick", "Default")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match for 'quick', got %d", len(matches))
	}
	if matches[0].UserMessage != "the quick fox" {
		t.Errorf("expected matching turn, got %q", matches[0].UserMessage)
	}

	// Match against the response side too.
	matches, err = store.Search(ctx, "jumps", "Default")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected 1 match against ai_response, got %d", len(matches))
	}

	matches, err = store.Search(ctx, "zzz_not_present", "Default")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestSqliteSearchCaseInsensitive(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "Hello World", nil, "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	matches, err := store.Search(ctx, "hello", "Default")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected case-insensitive match, got %d matches", len(matches))
	}
}

func TestSqliteSearchEmptyQueryMatchesAll(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "first", nil, "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "m1", "second", nil, "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "m1", "elsewhere", nil, "other"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	matches, err := store.Search(ctx, "", "Default")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("expected empty query to match every turn in session, got %d", len(matches))
	}
}

func TestSqliteNullResponse(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "hello", nil, "Default"); err != nil {
		t.Fatalf("Append with nil response failed: %v", err)
	}

	turns, err := store.Recent(ctx, "Default", 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].AIResponse != nil {
		t.Errorf("expected nil AIResponse, got %q", *turns[0].AIResponse)
	}
}

func TestSqliteUserMessageByID(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "look me up", strptr("found"), "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	turns, err := store.Recent(ctx, "Default", 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}

	message, err := store.UserMessageByID(ctx, turns[0].ID)
	if err != nil {
		t.Fatalf("UserMessageByID failed: %v", err)
	}
	if message != "look me up" {
		t.Errorf("expected 'look me up', got %q", message)
	}

	// After a Clear the id no longer resolves.
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	_, err = store.UserMessageByID(ctx, turns[0].ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after Clear, got %v", err)
	}
}

func TestSqliteIDsNotReusedAfterClear(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "before", nil, "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	before, err := store.Recent(ctx, "Default", 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if err := store.Append(ctx, "m1", "after", nil, "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	after, err := store.Recent(ctx, "Default", 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}

	if after[0].ID <= before[0].ID {
		t.Errorf("expected id after Clear (%d) to be greater than id before (%d)", after[0].ID, before[0].ID)
	}
}

func TestSqliteReopenPreservesHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.db")

	store, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}

	ctx := context.Background()
	if err := store.Append(ctx, "m1", "persisted", strptr("yes"), "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reconstructing against the same file must not raise and must not
	// discard prior history.
	reopened, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	turns, err := reopened.Recent(ctx, "Default", 10)
	if err != nil {
		t.Fatalf("Recent after reopen failed: %v", err)
	}
	if len(turns) != 1 {
		t.Errorf("expected history to survive reopen, got %d turns", len(turns))
	}
}

func TestSqliteSameSecondOrdering(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Two turns in the same second whose fractions are prefixes of each
	// other once trailing zeros are trimmed (0.12s vs 0.125s). With a
	// trimmed format, "…00.12Z" sorts lexicographically after
	// "…00.125Z" and Recent returns the older turn first.
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := base.Add(120 * time.Millisecond)
	later := base.Add(125 * time.Millisecond)

	for _, row := range []struct {
		ts  time.Time
		msg string
	}{
		{earlier, "first"},
		{later, "second"},
	} {
		_, err := store.db.ExecContext(ctx, `
			INSERT INTO conversations (timestamp, model, user_message, ai_response, session)
			VALUES (?, ?, ?, ?, ?)`,
			row.ts.Format(timestampFormat), "m1", row.msg, nil, "Default")
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	turns, err := store.Recent(ctx, "Default", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].UserMessage != "second" || turns[1].UserMessage != "first" {
		t.Errorf("expected newest-first within the same second, got %q then %q (timestamps %q, %q)",
			turns[0].UserMessage, turns[1].UserMessage, turns[0].Timestamp, turns[1].Timestamp)
	}
}

func TestSqliteTimestampFixedWidthFraction(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "hello", nil, "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	turns, err := store.Recent(ctx, "Default", 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}

	// The fractional part must keep its full nine digits so that TEXT
	// comparison in ORDER BY agrees with chronological order.
	timestamp := turns[0].Timestamp
	dot := strings.IndexByte(timestamp, '.')
	if dot == -1 {
		t.Fatalf("expected fractional seconds in timestamp %q", timestamp)
	}
	fraction := timestamp[dot+1:]
	for i, r := range fraction {
		if r < '0' || r > '9' {
			fraction = fraction[:i]
			break
		}
	}
	if len(fraction) != 9 {
		t.Errorf("expected 9 fractional digits in timestamp %q, got %d", timestamp, len(fraction))
	}

	if _, err := time.Parse(timestampFormat, timestamp); err != nil {
		t.Errorf("stored timestamp %q does not parse back: %v", timestamp, err)
	}
}

func TestSqliteSessionsSameSecondOrdering(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, row := range []struct {
		ts      time.Time
		session string
	}{
		{base.Add(120 * time.Millisecond), "older"},
		{base.Add(125 * time.Millisecond), "newer"},
	} {
		_, err := store.db.ExecContext(ctx, `
			INSERT INTO conversations (timestamp, model, user_message, ai_response, session)
			VALUES (?, ?, ?, ?, ?)`,
			row.ts.Format(timestampFormat), "m1", "msg", nil, row.session)
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0] != "newer" {
		t.Errorf("expected most recently written session first, got %v", sessions)
	}
}

func TestSqliteInMemorySharedAcrossGoroutines(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Every pooled connection must see the same database; with private
	// per-connection memory, appends beyond the first connection would
	// fail with "no such table".
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Append(ctx, "m1", "msg", nil, "Default")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	turns, err := store.Recent(ctx, "Default", 50)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 8 {
		t.Errorf("expected 8 turns, got %d", len(turns))
	}
}

func TestSqliteScenarioRoundTrip(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.Append(ctx, "m1", "hi", strptr("hello!"), "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "m1", "bye", strptr("goodbye!"), "Default"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	turns, err := store.Recent(ctx, "Default", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 2 || turns[0].UserMessage != "bye" || turns[1].UserMessage != "hi" {
		t.Fatalf("unexpected recent order: %+v", turns)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	turns, err = store.Recent(ctx, "Default", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected empty store after Clear, got %d turns", len(turns))
	}
}
