package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Manager defines the interface for session management operations.
type Manager interface {
	Start(ctx context.Context, userID int64, userName string) (string, error)
	Resolve(ctx context.Context, token string) (Session, error)
	Destroy(ctx context.Context, token string) error
	// TTL reports the lifetime given to new sessions, so the transport
	// layer can align cookie expiry with the server-side record.
	TTL() time.Duration
}

// manager issues tokens of the form "<id>.<signature>" where the signature
// is HMAC-SHA256 over the id, keyed with the configured session secret. A
// forged cookie fails the signature check before any store lookup.
type manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
}

// NewManager creates a session manager backed by the given store.
func NewManager(store Store, secret string, ttl time.Duration) Manager {
	return &manager{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Start allocates a new session for the user and returns its signed token.
func (m *manager) Start(ctx context.Context, userID int64, userName string) (string, error) {
	id := uuid.New().String()

	now := time.Now()
	sess := Session{
		ID:        id,
		UserID:    userID,
		UserName:  userName,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Set(ctx, sess); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return id + "." + m.sign(id), nil
}

// Resolve verifies a token and returns the session it names. Expired
// sessions are removed from the store on sight.
func (m *manager) Resolve(ctx context.Context, token string) (Session, error) {
	id, err := m.verify(token)
	if err != nil {
		return Session{}, err
	}

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}

	if time.Now().After(sess.ExpiresAt) {
		m.store.Delete(ctx, id)
		return Session{}, ErrExpired
	}

	return sess, nil
}

// Destroy removes the session named by the token, if any.
func (m *manager) Destroy(ctx context.Context, token string) error {
	id, err := m.verify(token)
	if err != nil {
		return err
	}
	return m.store.Delete(ctx, id)
}

// TTL reports the configured session lifetime.
func (m *manager) TTL() time.Duration {
	return m.ttl
}

func (m *manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *manager) verify(token string) (string, error) {
	id, sig, ok := strings.Cut(token, ".")
	if !ok || id == "" {
		return "", ErrInvalidToken
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(id))) {
		return "", ErrInvalidToken
	}
	return id, nil
}
