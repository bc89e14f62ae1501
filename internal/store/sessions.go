package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"iheartcare/internal/domain"
)

const sessionKeyPrefix = "iheartcare:session:"

// ErrSessionNotFound unknown or expired token.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore authentication sessions keyed by opaque token.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}

// sessionRecord stored form; the token is the key, not part of the value.
type sessionRecord struct {
	UserID      int64       `json:"user_id"`
	Username    string      `json:"username"`
	Role        domain.Role `json:"role"`
	PatientID   *int64      `json:"patient_id,omitempty"`
	ClinicianID *int64      `json:"clinician_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// KVSessionStore SessionStore over a KV (Redis in production, MemoryKV as fallback).
type KVSessionStore struct {
	kv  KV
	ttl time.Duration
}

func NewKVSessionStore(kv KV, ttl time.Duration) *KVSessionStore {
	return &KVSessionStore{kv: kv, ttl: ttl}
}

var _ SessionStore = (*KVSessionStore)(nil)

func sessionKey(token string) string { return sessionKeyPrefix + token }

func (s *KVSessionStore) Save(ctx context.Context, sess *domain.Session) error {
	if sess == nil || sess.Token == "" {
		return errors.New("session token is required")
	}
	b, err := json.Marshal(sessionRecord{
		UserID:      sess.UserID,
		Username:    sess.Username,
		Role:        sess.Role,
		PatientID:   sess.PatientID,
		ClinicianID: sess.ClinicianID,
		CreatedAt:   sess.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKey(sess.Token), string(b), s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *KVSessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	raw, err := s.kv.Get(ctx, sessionKey(token))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var rec sessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	role, err := domain.ParseRole(string(rec.Role))
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return &domain.Session{
		Token:       token,
		UserID:      rec.UserID,
		Username:    rec.Username,
		Role:        role,
		PatientID:   rec.PatientID,
		ClinicianID: rec.ClinicianID,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

// Delete unknown tokens are not an error.
func (s *KVSessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.kv.Del(ctx, sessionKey(token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
