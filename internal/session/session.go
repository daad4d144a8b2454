// Package session keeps a per-client attribute bag keyed by an opaque session id.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const DefaultMaxInactiveInterval = 30 * time.Minute

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrMissingAttribute  = errors.New("both key and value are required")
	ErrSessionIDEmpty    = errors.New("session id is empty")
	ErrAttributeKeyEmpty = errors.New("attribute key is empty")
)

// Session is a snapshot; mutating it does not change the store.
type Session struct {
	ID                  string
	CreatedAt           time.Time
	LastAccessedAt      time.Time
	MaxInactiveInterval time.Duration
	Attributes          map[string]string
	// IsNew is set when the session was created while serving the current request.
	IsNew bool
}

func newSession(ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:                  uuid.NewString(),
		CreatedAt:           now,
		LastAccessedAt:      now,
		MaxInactiveInterval: ttl,
		Attributes:          make(map[string]string),
	}
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Attributes = make(map[string]string, len(s.Attributes))
	for k, v := range s.Attributes {
		cp.Attributes[k] = v
	}
	return &cp
}

// Store persists sessions keyed by id. Get refreshes the inactivity deadline,
// and every method returns ErrSessionNotFound for unknown or expired ids.
type Store interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	SetAttribute(ctx context.Context, id, key, value string) error
	GetAttribute(ctx context.Context, id, key string) (string, bool, error)
	RemoveAttribute(ctx context.Context, id, key string) (string, bool, error)
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context) error
}

func validateIDAndKey(id, key string) error {
	if id == "" {
		return ErrSessionIDEmpty
	}
	if key == "" {
		return ErrAttributeKeyEmpty
	}
	return nil
}
