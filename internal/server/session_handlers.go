package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type SessionInfoResponse struct {
	SessionID           string    `json:"sessionId"`
	IsNew               bool      `json:"isNew"`
	CreationTime        time.Time `json:"creationTime"`
	LastAccessedTime    time.Time `json:"lastAccessedTime"`
	MaxInactiveInterval int64     `json:"maxInactiveInterval"`
	AttributeCount      int       `json:"attributeCount"`
	Timestamp           time.Time `json:"timestamp"`
}

func (h *handlers) sessionInfo(c echo.Context) error {
	s, err := h.sessions.Resolve(c.Response(), c.Request())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SessionInfoResponse{
		SessionID:           s.ID,
		IsNew:               s.IsNew,
		CreationTime:        s.CreatedAt,
		LastAccessedTime:    s.LastAccessedAt,
		MaxInactiveInterval: int64(s.MaxInactiveInterval / time.Second),
		AttributeCount:      len(s.Attributes),
		Timestamp:           time.Now(),
	})
}

type sessionSetRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type SessionSetResponse struct {
	SessionID string    `json:"sessionId"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *handlers) sessionSet(c echo.Context) error {
	var req sessionSetRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	s, err := h.sessions.Resolve(c.Response(), c.Request())
	if err != nil {
		return err
	}
	if err := h.sessions.SetAttribute(c.Request().Context(), s, req.Key, req.Value); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SessionSetResponse{
		SessionID: s.ID,
		Key:       req.Key,
		Value:     req.Value,
		Message:   "Attribute set successfully",
		Timestamp: time.Now(),
	})
}

type SessionGetResponse struct {
	SessionID string    `json:"sessionId"`
	Key       string    `json:"key"`
	Value     string    `json:"value,omitempty"`
	Found     bool      `json:"found"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *handlers) sessionGet(c echo.Context) error {
	s, err := h.sessions.Resolve(c.Response(), c.Request())
	if err != nil {
		return err
	}
	key, err := pathParam(c, "key")
	if err != nil {
		return err
	}
	value, found, err := h.sessions.GetAttribute(c.Request().Context(), s, key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SessionGetResponse{
		SessionID: s.ID,
		Key:       key,
		Value:     value,
		Found:     found,
		Timestamp: time.Now(),
	})
}

type SessionAllResponse struct {
	SessionID  string            `json:"sessionId"`
	Attributes map[string]string `json:"attributes"`
	Count      int               `json:"count"`
	Timestamp  time.Time         `json:"timestamp"`
}

func (h *handlers) sessionAll(c echo.Context) error {
	s, err := h.sessions.Resolve(c.Response(), c.Request())
	if err != nil {
		return err
	}
	attributes := s.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}
	return c.JSON(http.StatusOK, SessionAllResponse{
		SessionID:  s.ID,
		Attributes: attributes,
		Count:      len(attributes),
		Timestamp:  time.Now(),
	})
}

type SessionRemoveResponse struct {
	SessionID     string    `json:"sessionId"`
	Key           string    `json:"key"`
	Removed       bool      `json:"removed"`
	PreviousValue string    `json:"previousValue,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func (h *handlers) sessionRemove(c echo.Context) error {
	s, err := h.sessions.Resolve(c.Response(), c.Request())
	if err != nil {
		return err
	}
	key, err := pathParam(c, "key")
	if err != nil {
		return err
	}
	previous, found, err := h.sessions.RemoveAttribute(c.Request().Context(), s, key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SessionRemoveResponse{
		SessionID:     s.ID,
		Key:           key,
		Removed:       found,
		PreviousValue: previous,
		Timestamp:     time.Now(),
	})
}

type SessionInvalidateResponse struct {
	InvalidatedSessionID string    `json:"invalidatedSessionId"`
	Message              string    `json:"message"`
	Timestamp            time.Time `json:"timestamp"`
}

func (h *handlers) sessionInvalidate(c echo.Context) error {
	s, err := h.sessions.Resolve(c.Response(), c.Request())
	if err != nil {
		return err
	}
	if err := h.sessions.Invalidate(c.Response(), c.Request(), s); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SessionInvalidateResponse{
		InvalidatedSessionID: s.ID,
		Message:              "Session invalidated successfully",
		Timestamp:            time.Now(),
	})
}
