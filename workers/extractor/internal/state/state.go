// Package state persists what one run hands to the next: the latest refresh
// token, a stable nonce and the time of the last successful sync.
package state

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bingads-extractor/shared/observability"
)

// TimeLayout is ISO-8601 with second precision and an explicit offset.
const TimeLayout = "2006-01-02T15:04:05-07:00"

// State is the persisted document.
type State struct {
	RefreshToken      string `json:"#refresh_token,omitempty"`
	Nonce             string `json:"#nonce,omitempty"`
	LastSyncTimeInUTC string `json:"last_sync_time_in_utc,omitempty"`
}

// LastSync parses LastSyncTimeInUTC. It returns nil when no sync is recorded.
func (s State) LastSync() (*time.Time, error) {
	if s.LastSyncTimeInUTC == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s.LastSyncTimeInUTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid last_sync_time_in_utc %q", s.LastSyncTimeInUTC)
}

// FormatSyncTime renders t the way LastSyncTimeInUTC stores it.
func FormatSyncTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimeLayout)
}

// NewNonce returns a random 32 character identifier.
func NewNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Store loads and saves the state document.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
}

// Session is the state of a single run. The refresh token is saved as soon
// as it changes; the sync time only moves on Complete.
type Session struct {
	store  Store
	logger observability.Logger

	mu       sync.Mutex
	previous State
	current  State
}

// Open loads the previous state and assigns a nonce if there is none yet.
func Open(ctx context.Context, store Store, logger observability.Logger) (*Session, error) {
	prev, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := prev.LastSync(); err != nil {
		logger.Warn(ctx, "Ignoring unreadable last sync time", observability.Fields{
			"value": prev.LastSyncTimeInUTC,
		})
		prev.LastSyncTimeInUTC = ""
	}

	cur := prev
	if cur.Nonce == "" {
		cur.Nonce = NewNonce()
	}
	return &Session{store: store, logger: logger, previous: prev, current: cur}, nil
}

// LastSync is the time of the previous successful run, or nil.
func (s *Session) LastSync() *time.Time {
	t, _ := s.previous.LastSync()
	return t
}

// StoredRefreshToken is the refresh token saved by a previous run.
func (s *Session) StoredRefreshToken() string {
	return s.previous.RefreshToken
}

func (s *Session) Nonce() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Nonce
}

// Current returns a copy of the state as it would be saved now.
func (s *Session) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SaveToken records a new refresh token and saves immediately, keeping the
// previous sync time.
func (s *Session) SaveToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.current.RefreshToken = token
	snapshot := s.current
	s.mu.Unlock()

	if err := s.store.Save(ctx, snapshot); err != nil {
		return err
	}
	s.logger.Info(ctx, "Refresh token saved", nil)
	return nil
}

// Complete records a successful run that started at syncTime and saves.
func (s *Session) Complete(ctx context.Context, syncTime time.Time) error {
	s.mu.Lock()
	s.current.LastSyncTimeInUTC = FormatSyncTime(syncTime)
	snapshot := s.current
	s.mu.Unlock()

	return s.store.Save(ctx, snapshot)
}
