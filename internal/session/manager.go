package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/life-stream-dev/apm-demo/internal/logger"
)

const DefaultCookieName = "APMSESSIONID"

// Manager binds a Store to HTTP requests through a session cookie.
type Manager struct {
	store      Store
	cookieName string
}

func NewManager(store Store, cookieName string) *Manager {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Manager{store: store, cookieName: cookieName}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// Resolve returns the session named by the request cookie, creating a new one
// (and setting the cookie) when the cookie is missing, malformed or stale.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) (*Session, error) {
	ctx := r.Context()
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			s, err := m.store.Get(ctx, cookie.Value)
			if err == nil {
				return s, nil
			}
			if !errors.Is(err, ErrSessionNotFound) {
				return nil, err
			}
			logger.DebugF("Session %s is gone, creating a new one", cookie.Value)
		}
	}

	s, err := m.store.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.IsNew = true
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// SetAttribute stores key=value in s and mirrors the change on the snapshot.
func (m *Manager) SetAttribute(ctx context.Context, s *Session, key, value string) error {
	if key == "" || value == "" {
		return ErrMissingAttribute
	}
	if err := m.store.SetAttribute(ctx, s.ID, key, value); err != nil {
		return err
	}
	s.Attributes[key] = value
	return nil
}

func (m *Manager) GetAttribute(ctx context.Context, s *Session, key string) (string, bool, error) {
	return m.store.GetAttribute(ctx, s.ID, key)
}

func (m *Manager) RemoveAttribute(ctx context.Context, s *Session, key string) (string, bool, error) {
	previous, found, err := m.store.RemoveAttribute(ctx, s.ID, key)
	if err != nil {
		return "", false, err
	}
	delete(s.Attributes, key)
	return previous, found, nil
}

// Invalidate destroys s and expires the client's cookie.
func (m *Manager) Invalidate(w http.ResponseWriter, r *http.Request, s *Session) error {
	if err := m.store.Delete(r.Context(), s.ID); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	logger.DebugF("Session %s invalidated", s.ID)
	return nil
}

func (m *Manager) Close(ctx context.Context) error {
	return m.store.Close(ctx)
}
