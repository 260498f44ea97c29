package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (m *memoryStore) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func runIdempotent(t *testing.T, store IdempotencyStore, method, key string, handler echo.HandlerFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/api/checkout", nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Idempotency(store, time.Hour, log)(handler)(c)
}

func TestIdempotency_DuplicateKeyIsRejected(t *testing.T) {
	store := &memoryStore{keys: map[string]bool{}}
	calls := 0
	ok := func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusCreated)
	}

	require.NoError(t, runIdempotent(t, store, http.MethodPost, "abc", ok))
	err := runIdempotent(t, store, http.MethodPost, "abc", ok)

	assert.Equal(t, http.StatusConflict, httpStatus(t, err))
	assert.Equal(t, 1, calls)
}

func TestIdempotency_FailedRequestReleasesKey(t *testing.T) {
	store := &memoryStore{keys: map[string]bool{}}
	failing := func(c echo.Context) error { return errors.New("boom") }

	require.Error(t, runIdempotent(t, store, http.MethodPost, "abc", failing))
	require.NoError(t, runIdempotent(t, store, http.MethodPost, "abc", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}))
}

func TestIdempotency_PassThrough(t *testing.T) {
	store := &memoryStore{keys: map[string]bool{}}
	calls := 0
	ok := func(c echo.Context) error {
		calls++
		return nil
	}

	require.NoError(t, runIdempotent(t, store, http.MethodPost, "", ok))
	require.NoError(t, runIdempotent(t, store, http.MethodPost, "", ok))
	require.NoError(t, runIdempotent(t, store, http.MethodGet, "abc", ok))
	require.NoError(t, runIdempotent(t, store, http.MethodGet, "abc", ok))

	store.err = errors.New("redis down")
	require.NoError(t, runIdempotent(t, store, http.MethodPost, "xyz", ok))

	assert.Equal(t, 5, calls)
}
