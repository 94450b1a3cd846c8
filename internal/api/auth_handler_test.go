package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/glideclouds/taskboard-api/internal/service/auth"
	"github.com/glideclouds/taskboard-api/internal/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (s *memUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *memUserStore) GetAllByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *memUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

func newTestAuthHandler(t *testing.T) (*AuthHandler, *memUserStore, auth.JWTService) {
	t.Helper()
	jwtService := auth.NewTestJWTService(
		"this-is-a-test-secret-at-least-32-chars",
		time.Hour,
		func() time.Time { return time.Now() },
	)
	users := newMemUserStore()
	handler := NewAuthHandler(users, jwtService, auth.NewBcryptHasher(bcrypt.MinCost))
	return handler, users, jwtService
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("success returns token pair", func(t *testing.T) {
		t.Parallel()
		handler, users, jwtService := newTestAuthHandler(t)

		rec := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
			Email:    "Alice@Example.com",
			Password: "correct-horse-battery",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.False(t, resp.IsAdmin)

		claims, err := jwtService.ValidateToken(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.UserID, claims.UserID)

		// Email is normalized and the plaintext password never stored.
		stored, err := users.GetByEmail(context.Background(), "alice@example.com")
		require.NoError(t, err)
		assert.Empty(t, stored.Password)
		assert.NotEmpty(t, stored.HashedPassword)
	})

	t.Run("short password rejected", func(t *testing.T) {
		t.Parallel()
		handler, _, _ := newTestAuthHandler(t)

		rec := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
			Email:    "bob@example.com",
			Password: "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		t.Parallel()
		handler, _, _ := newTestAuthHandler(t)

		body := RegisterRequest{Email: "carol@example.com", Password: "correct-horse-battery"}
		require.Equal(t, http.StatusCreated, postJSON(t, handler.Register, "/auth/register", body).Code)
		assert.Equal(t, http.StatusConflict, postJSON(t, handler.Register, "/auth/register", body).Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	handler, _, _ := newTestAuthHandler(t)
	register := RegisterRequest{Email: "dave@example.com", Password: "correct-horse-battery"}
	require.Equal(t, http.StatusCreated, postJSON(t, handler.Register, "/auth/register", register).Code)

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()
		rec := postJSON(t, handler.Login, "/auth/login", LoginRequest{
			Email:    "dave@example.com",
			Password: "correct-horse-battery",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		rec := postJSON(t, handler.Login, "/auth/login", LoginRequest{
			Email:    "dave@example.com",
			Password: "not-the-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user indistinguishable from wrong password", func(t *testing.T) {
		t.Parallel()
		rec := postJSON(t, handler.Login, "/auth/login", LoginRequest{
			Email:    "nobody@example.com",
			Password: "correct-horse-battery",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Invalid credentials", resp["error"])
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	handler, users, jwtService := newTestAuthHandler(t)
	register := RegisterRequest{Email: "erin@example.com", Password: "correct-horse-battery"}
	rec := postJSON(t, handler.Register, "/auth/register", register)
	require.Equal(t, http.StatusCreated, rec.Code)

	var registered AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&registered))

	t.Run("valid refresh token", func(t *testing.T) {
		rec := postJSON(t, handler.RefreshToken, "/auth/refresh", RefreshTokenRequest{
			RefreshToken: registered.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, registered.UserID, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		rec := postJSON(t, handler.RefreshToken, "/auth/refresh", RefreshTokenRequest{
			RefreshToken: registered.AccessToken,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("role change picked up on refresh", func(t *testing.T) {
		user, err := users.GetByID(context.Background(), registered.UserID)
		require.NoError(t, err)
		user.IsAdmin = true

		rec := postJSON(t, handler.RefreshToken, "/auth/refresh", RefreshTokenRequest{
			RefreshToken: registered.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.IsAdmin)

		claims, err := jwtService.ValidateToken(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.True(t, claims.IsAdmin)
	})
}
