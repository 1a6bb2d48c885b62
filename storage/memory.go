// Package storage provides in-memory conversation storage.
//
// Information Hiding:
// - Slice storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemoryStore implements ConversationStore using an in-memory slice.
// Data is lost when the process terminates.
type InMemoryStore struct {
	mu     sync.RWMutex
	turns  []Turn
	nextID int64
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		turns:  []Turn{},
		nextID: 1,
	}
}

// Append inserts one new turn with a fresh id and the current time.
func (s *InMemoryStore) Append(ctx context.Context, model, userMessage string, aiResponse *string, session string) error {
	if session == "" {
		session = DefaultSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var response *string
	if aiResponse != nil {
		// Copy so later caller mutations don't reach stored state.
		value := *aiResponse
		response = &value
	}

	s.turns = append(s.turns, Turn{
		ID:          s.nextID,
		Timestamp:   time.Now().Format(timestampFormat),
		Model:       model,
		UserMessage: userMessage,
		AIResponse:  response,
		Session:     session,
	})
	s.nextID++ // ids are never reused, even after Clear

	return nil
}

// Recent returns at most limit turns for session, newest first.
// limit <= 0 returns an empty slice.
func (s *InMemoryStore) Recent(ctx context.Context, session string, limit int) ([]Turn, error) {
	if session == "" {
		session = DefaultSession
	}
	if limit <= 0 {
		return []Turn{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []Turn{} // Start with empty slice, not nil
	for i := len(s.turns) - 1; i >= 0 && len(result) < limit; i-- {
		if s.turns[i].Session == session {
			result = append(result, s.turns[i])
		}
	}
	return result, nil
}

// Search returns all turns in session containing query as a substring of
// the user message or AI response, newest first. Matching is
// case-insensitive, like the SQLite backend's LIKE. An empty query matches
// every turn in the session.
func (s *InMemoryStore) Search(ctx context.Context, query, session string) ([]Turn, error) {
	if session == "" {
		session = DefaultSession
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	result := []Turn{} // Start with empty slice, not nil
	for i := len(s.turns) - 1; i >= 0; i-- {
		turn := s.turns[i]
		if turn.Session != session {
			continue
		}
		if strings.Contains(strings.ToLower(turn.UserMessage), needle) ||
			(turn.AIResponse != nil && strings.Contains(strings.ToLower(*turn.AIResponse), needle)) {
			result = append(result, turn)
		}
	}
	return result, nil
}

// Clear deletes every turn across all sessions. The id counter is not
// reset, so ids stay unique across a Clear.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = []Turn{}
	return nil
}

// ClearSession deletes every turn in one session.
func (s *InMemoryStore) ClearSession(ctx context.Context, session string) error {
	if session == "" {
		session = DefaultSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.turns[:0]
	for _, turn := range s.turns {
		if turn.Session != session {
			kept = append(kept, turn)
		}
	}
	s.turns = kept
	return nil
}

// UserMessageByID returns the user message of the turn with the given id.
// Returns ErrNotFound if no such turn exists.
func (s *InMemoryStore) UserMessageByID(ctx context.Context, id int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, turn := range s.turns {
		if turn.ID == id {
			return turn.UserMessage, nil
		}
	}
	return "", ErrNotFound
}

// Sessions lists the distinct session labels that currently have turns,
// most recently written first.
func (s *InMemoryStore) Sessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	sessions := []string{} // Start with empty slice, not nil
	for i := len(s.turns) - 1; i >= 0; i-- {
		session := s.turns[i].Session
		if !seen[session] {
			seen[session] = true
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// Verify InMemoryStore implements ConversationStore
var _ ConversationStore = (*InMemoryStore)(nil)
