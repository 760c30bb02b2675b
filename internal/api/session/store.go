package session

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// DefaultMaxMessages bounds per-session history; older messages are evicted FIFO.
const DefaultMaxMessages = 20

// Patterns used by ExtractLastDestination when scanning stored history. The
// last one catches "Ciudad, País" quoted inside an assistant's JSON-ish answer.
var historyDestinationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:viajar\s+a)\s+([A-ZÁÉÍÓÚÑ][a-záéíóúñ\s]+(?:,\s*[A-ZÁÉÍÓÚÑ][a-záéíóúñ\s]+)?)`),
	regexp.MustCompile(`(?i:destino[:\s])\s*([A-ZÁÉÍÓÚÑ][a-záéíóúñ\s]+(?:,\s*[A-ZÁÉÍÓÚÑ][a-záéíóúñ\s]+)?)`),
	regexp.MustCompile(`([A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:\s+[a-záéíóúñ]+)*,\s*[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:\s+[a-záéíóúñ]+)*)`),
	regexp.MustCompile(`["']([A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:\s+[a-záéíóúñ]+)*,\s*[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:\s+[a-záéíóúñ]+)*)["']`),
}

type sessionRecord struct {
	// turnMu serializes whole turns on this session; mu guards the state for
	// individual store calls. Separate locks so store operations made while a
	// turn lock is held do not self-deadlock.
	turnMu  sync.Mutex
	mu      sync.Mutex
	session types.Session
}

// Store owns all per-session conversational state in memory. It is constructed
// explicitly and injected; there is no package-level instance. The outer RWMutex
// guards the map, the per-record mutex serializes turns on one session so that
// turns on different sessions never block each other.
type Store struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*sessionRecord
	maxMessages int
	logger      *slog.Logger
}

// NewStore creates an empty store. maxMessages <= 0 falls back to the default cap.
func NewStore(maxMessages int, logger *slog.Logger) *Store {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions:    make(map[uuid.UUID]*sessionRecord),
		maxMessages: maxMessages,
		logger:      logger,
	}
}

// CreateSession allocates a fresh empty session and returns its ID.
func (s *Store) CreateSession() uuid.UUID {
	id := uuid.New()
	now := time.Now()
	s.mu.Lock()
	s.sessions[id] = &sessionRecord{session: types.Session{ID: id, CreatedAt: now, UpdatedAt: now}}
	s.mu.Unlock()
	s.logger.Debug("Session created", slog.String("session_id", id.String()))
	return id
}

// Exists reports whether the session is known.
func (s *Store) Exists(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// record returns the session record, creating an empty bucket for unknown IDs.
// Defensive default: callers that lost a race with DeleteSession keep working.
func (s *Store) record(id uuid.UUID) *sessionRecord {
	s.mu.RLock()
	rec, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok = s.sessions[id]; ok {
		return rec
	}
	now := time.Now()
	rec = &sessionRecord{session: types.Session{ID: id, CreatedAt: now, UpdatedAt: now}}
	s.sessions[id] = rec
	return rec
}

// LockSession serializes a whole turn on one session. Callers must pair it
// with UnlockSession. Turns on different sessions do not block each other.
func (s *Store) LockSession(id uuid.UUID) {
	s.record(id).turnMu.Lock()
}

// UnlockSession releases the per-session turn lock.
func (s *Store) UnlockSession(id uuid.UUID) {
	s.record(id).turnMu.Unlock()
}

// AddMessage appends to the session history, evicting the oldest message once
// the cap is exceeded. Unknown sessions get a bucket instead of an error.
func (s *Store) AddMessage(id uuid.UUID, role types.MessageRole, content string) {
	rec := s.record(id)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.session.Messages = append(rec.session.Messages, types.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if overflow := len(rec.session.Messages) - s.maxMessages; overflow > 0 {
		rec.session.Messages = rec.session.Messages[overflow:]
	}
	rec.session.UpdatedAt = time.Now()
}

// GetHistory returns a copy of the most recent messages, oldest first. limit <= 0
// means all. Unknown session returns an empty slice.
func (s *Store) GetHistory(id uuid.UUID, limit int) []types.Message {
	s.mu.RLock()
	rec, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return []types.Message{}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	msgs := rec.session.Messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]types.Message, len(msgs))
	copy(out, msgs)
	return out
}

// ConversationContext renders recent history as "Usuario:/Alex:" lines for
// inclusion in a contextual prompt. Empty string when there is no history.
func (s *Store) ConversationContext(id uuid.UUID, limit int) string {
	msgs := s.GetHistory(id, limit)
	if len(msgs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		name := "Alex"
		if m.Role == types.RoleUser {
			name = "Usuario"
		}
		parts = append(parts, name+": "+m.Content)
	}
	return strings.Join(parts, "\n")
}

// GetCurrentDestination returns the tracked destination, or "" when unset.
func (s *Store) GetCurrentDestination(id uuid.UUID) string {
	s.mu.RLock()
	rec, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ""
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.session.CurrentDestination == nil {
		return ""
	}
	return *rec.session.CurrentDestination
}

// SetCurrentDestination records the conversation topic. Empty input clears it
// instead, preserving the never-empty-string invariant.
func (s *Store) SetCurrentDestination(id uuid.UUID, dest string) {
	dest = strings.TrimSpace(dest)
	rec := s.record(id)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if dest == "" {
		rec.session.CurrentDestination = nil
	} else {
		rec.session.CurrentDestination = &dest
		s.logger.Debug("Current destination set",
			slog.String("session_id", id.String()), slog.String("destination", dest))
	}
	rec.session.UpdatedAt = time.Now()
}

// ClearCurrentDestination removes the tracked destination.
func (s *Store) ClearCurrentDestination(id uuid.UUID) {
	rec := s.record(id)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.session.CurrentDestination = nil
	rec.session.UpdatedAt = time.Now()
}

// SetPendingConfirmation records that the assistant asked the user to confirm a
// destination change. Replaces any previous pending record: at most one exists.
func (s *Store) SetPendingConfirmation(id uuid.UUID, detected, current, originalQuestion string) {
	rec := s.record(id)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.session.Pending = &types.PendingConfirmation{
		DetectedDestination: detected,
		CurrentDestination:  current,
		OriginalQuestion:    originalQuestion,
		CreatedAt:           time.Now(),
	}
	rec.session.UpdatedAt = time.Now()
	s.logger.Debug("Pending confirmation set",
		slog.String("session_id", id.String()), slog.String("detected", detected))
}

// GetPendingConfirmation returns a copy of the pending record, or nil.
func (s *Store) GetPendingConfirmation(id uuid.UUID) *types.PendingConfirmation {
	s.mu.RLock()
	rec, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.session.Pending == nil {
		return nil
	}
	pending := *rec.session.Pending
	return &pending
}

// ClearPendingConfirmation drops the pending record, if any.
func (s *Store) ClearPendingConfirmation(id uuid.UUID) {
	rec := s.record(id)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.session.Pending = nil
	rec.session.UpdatedAt = time.Now()
}

// ExtractLastDestination scans stored history most-recent-first for anything
// that looks like "Ciudad, País". Fallback only, used when no explicit current
// destination was ever recorded.
func (s *Store) ExtractLastDestination(id uuid.UUID) string {
	msgs := s.GetHistory(id, 0)
	for i := len(msgs) - 1; i >= 0; i-- {
		for _, pattern := range historyDestinationPatterns {
			for _, m := range pattern.FindAllStringSubmatch(msgs[i].Content, -1) {
				candidate := strings.TrimSpace(m[1])
				if strings.Contains(candidate, ",") {
					return candidate
				}
			}
		}
	}
	return ""
}

// ClearMessages empties the history but keeps destination and confirmation
// state. Distinct from DeleteSession.
func (s *Store) ClearMessages(id uuid.UUID) {
	rec := s.record(id)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.session.Messages = nil
	rec.session.UpdatedAt = time.Now()
}

// DeleteSession removes the session entirely.
func (s *Store) DeleteSession(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// SessionIDs lists all known session IDs.
func (s *Store) SessionIDs() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Stats summarizes one session.
func (s *Store) Stats(id uuid.UUID) types.SessionStats {
	s.mu.RLock()
	rec, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return types.SessionStats{}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	stats := types.SessionStats{Exists: true, MessageCount: len(rec.session.Messages)}
	for _, m := range rec.session.Messages {
		if m.Role == types.RoleUser {
			stats.UserMessages++
		} else {
			stats.AssistantMessages++
		}
	}
	if n := len(rec.session.Messages); n > 0 {
		last := rec.session.Messages[n-1].Timestamp
		stats.LastMessage = &last
	}
	return stats
}
