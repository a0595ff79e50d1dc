package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"capital-research-be/internal/pkg/logger"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	sessionKeyPrefix = "research:session:"
	userIndexPrefix  = "research:user:"
)

// Intent is the inferred purpose of a conversation.
type Intent string

const (
	IntentLending        Intent = "lending"
	IntentInvesting      Intent = "investing"
	IntentPropertySearch Intent = "property_search"
	IntentGeneral        Intent = "general"
)

// Turn is one message in a conversation.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Context carries lightweight conversational state between turns.
type Context struct {
	CurrentPage        string   `json:"current_page,omitempty"`
	LastDealAnalyzed   string   `json:"last_deal_analyzed,omitempty"`
	LastPropertySearch string   `json:"last_property_search,omitempty"`
	Interests          []string `json:"interests,omitempty"`
	Intent             Intent   `json:"intent,omitempty"`
}

// ContextPatch is a shallow merge into Context. Nil fields are left untouched.
type ContextPatch struct {
	CurrentPage        *string
	LastDealAnalyzed   *string
	LastPropertySearch *string
	Interests          []string
	Intent             *Intent
}

// Session is one conversational thread.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id,omitempty"`
	Turns      []Turn    `json:"turns"`
	Context    Context   `json:"context"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Store keeps sessions as whole-record JSON snapshots in a keyed TTL store.
// Concurrent writers to one session id race and the last full snapshot wins;
// per-turn granularity is traded for keeping turns and context in one record.
//
// Every operation degrades gracefully: reads fall back to a fresh default
// session and writes log and swallow, so a Redis outage never aborts the
// enclosing conversational turn.
type Store struct {
	kv          KeyValueStore
	log         logger.ILogger
	ttl         time.Duration
	userLinkTTL time.Duration
	maxTurns    int
}

func NewStore(kv KeyValueStore, log logger.ILogger, ttl, userLinkTTL time.Duration, maxTurns int) *Store {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if userLinkTTL <= 0 {
		userLinkTTL = 30 * 24 * time.Hour
	}
	if maxTurns <= 0 {
		maxTurns = 50
	}
	return &Store{
		kv:          kv,
		log:         log,
		ttl:         ttl,
		userLinkTTL: userLinkTTL,
		maxTurns:    maxTurns,
	}
}

// GetOrCreate returns the live session for id, refreshing last-active and
// renewing the TTL. An empty or unknown id yields a brand new session with a
// freshly generated identifier. Never returns an error to the caller.
func (s *Store) GetOrCreate(ctx context.Context, id string) *Session {
	if id != "" {
		if sess, ok := s.load(ctx, id); ok {
			sess.LastActive = time.Now()
			s.persist(ctx, sess)
			return sess
		}
	}

	now := time.Now()
	sess := &Session{
		ID:         newSessionID(),
		Turns:      []Turn{},
		Context:    Context{Intent: IntentGeneral},
		CreatedAt:  now,
		LastActive: now,
	}
	s.persist(ctx, sess)
	return sess
}

// AppendTurn loads-or-creates the session, pushes a turn and truncates to the
// most recent maxTurns entries, oldest evicted first.
func (s *Store) AppendTurn(ctx context.Context, id, role, content string) {
	sess := s.GetOrCreate(ctx, id)
	sess.Turns = append(sess.Turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if len(sess.Turns) > s.maxTurns {
		sess.Turns = sess.Turns[len(sess.Turns)-s.maxTurns:]
	}
	sess.LastActive = time.Now()
	s.persist(ctx, sess)
}

// UpdateContext shallow-merges the patch into the session context.
func (s *Store) UpdateContext(ctx context.Context, id string, patch ContextPatch) {
	sess := s.GetOrCreate(ctx, id)
	if patch.CurrentPage != nil {
		sess.Context.CurrentPage = *patch.CurrentPage
	}
	if patch.LastDealAnalyzed != nil {
		sess.Context.LastDealAnalyzed = *patch.LastDealAnalyzed
	}
	if patch.LastPropertySearch != nil {
		sess.Context.LastPropertySearch = *patch.LastPropertySearch
	}
	if patch.Interests != nil {
		sess.Context.Interests = patch.Interests
	}
	if patch.Intent != nil {
		sess.Context.Intent = *patch.Intent
	}
	sess.LastActive = time.Now()
	s.persist(ctx, sess)
}

// LinkToUser attaches a user identity to the session and writes the
// user -> current session index entry. The index TTL is independent of the
// session's own TTL.
func (s *Store) LinkToUser(ctx context.Context, id, userID string) {
	if userID == "" {
		return
	}
	sess := s.GetOrCreate(ctx, id)
	sess.UserID = userID
	sess.LastActive = time.Now()
	s.persist(ctx, sess)

	if err := s.kv.Set(ctx, userIndexPrefix+userID, sess.ID, s.userLinkTTL); err != nil {
		s.log.Warn("session", "failed to write user index", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

// SessionForUser returns the current session id linked to a user, or "".
func (s *Store) SessionForUser(ctx context.Context, userID string) string {
	id, err := s.kv.Get(ctx, userIndexPrefix+userID)
	if err != nil {
		return ""
	}
	return id
}

// RecentTranscript renders the most recent limit turns as alternating
// "User:"/"Assistant:" lines, oldest of the window first. Empty string when
// the session has no turns.
func (s *Store) RecentTranscript(ctx context.Context, id string, limit int) string {
	sess, ok := s.load(ctx, id)
	if !ok || len(sess.Turns) == 0 {
		return ""
	}

	turns := sess.Turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		speaker := "User"
		if turn.Role == RoleAssistant {
			speaker = "Assistant"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, turn.Content))
	}
	return strings.Join(lines, "\n")
}

func (s *Store) load(ctx context.Context, id string) (*Session, bool) {
	raw, err := s.kv.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		if err != ErrNotFound {
			s.log.Warn("session", "session read failed, using default", map[string]interface{}{
				"session_id": id,
				"error":      err.Error(),
			})
		}
		return nil, false
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.log.Warn("session", "corrupt session record discarded", map[string]interface{}{
			"session_id": id,
			"error":      err.Error(),
		})
		return nil, false
	}
	return &sess, true
}

func (s *Store) persist(ctx context.Context, sess *Session) {
	raw, err := json.Marshal(sess)
	if err != nil {
		s.log.Error("session", "session marshal failed", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		return
	}
	if err := s.kv.Set(ctx, sessionKeyPrefix+sess.ID, string(raw), s.ttl); err != nil {
		s.log.Warn("session", "session write failed, continuing without persistence", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}
}

// newSessionID derives an opaque identifier from time plus randomness.
// Identifiers are never reused across unrelated requests.
func newSessionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// rand failure is effectively impossible; fall back to time only
		return fmt.Sprintf("session_%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
