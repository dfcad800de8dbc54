package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ntfygo/pkg/errors"
)

func TestSignUp(t *testing.T) {
	t.Run("Succeeds", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		require.NoError(t, c.SignUp(context.Background(), "phil", "secret"))
		assert.Equal(t, "/v1/account", gotPath)
		assert.Equal(t, map[string]string{"username": "phil", "password": "secret"}, gotBody)
	})

	t.Run("EmptyUsername", func(t *testing.T) {
		c := newTestClient(t, DefaultServer)
		err := c.SignUp(context.Background(), "", "secret")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParameter))
	})

	t.Run("SignupDisabled", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		err := c.SignUp(context.Background(), "phil", "secret")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeUnauthorized))
	})
}

func TestChangePassword(t *testing.T) {
	t.Run("Succeeds", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		user := NewUser("phil", "old")
		require.NoError(t, c.ChangePassword(context.Background(), user, "old", "new"))
		assert.Equal(t, "/v1/account/password", gotPath)
		assert.NotEmpty(t, gotAuth)
		assert.Equal(t, map[string]string{"password": "old", "new_password": "new"}, gotBody)
	})

	t.Run("RequiresUser", func(t *testing.T) {
		c := newTestClient(t, DefaultServer)
		err := c.ChangePassword(context.Background(), nil, "old", "new")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeMissingCredentials))
	})

	t.Run("RequiresNewPassword", func(t *testing.T) {
		c := newTestClient(t, DefaultServer)
		err := c.ChangePassword(context.Background(), NewUser("phil", "old"), "old", "")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParameter))
	})
}

func TestGenerateToken(t *testing.T) {
	t.Run("DecodesDetails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/account/token", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"token":"tk_new","last_access":1645192000,"last_origin":"10.0.0.1","expires":1645278400}`))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		details, err := c.GenerateToken(context.Background(), NewUser("phil", "secret"))
		require.NoError(t, err)
		assert.Equal(t, "tk_new", details.Token)
		assert.Equal(t, int64(1645278400), details.Expires)
	})

	t.Run("RequiresUser", func(t *testing.T) {
		c := newTestClient(t, DefaultServer)
		_, err := c.GenerateToken(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeMissingCredentials))
	})
}

func TestAccountInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/account", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"username": "phil",
			"role": "user",
			"sync_topic": "st_abc",
			"limits": {"basis": "tier", "messages": 1000, "reservations": 3},
			"stats": {"messages": 42, "messages_remaining": 958}
		}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	info, err := c.AccountInfo(context.Background(), NewTokenUser("tk_abc"))
	require.NoError(t, err)
	assert.Equal(t, "phil", info.Username)
	assert.Equal(t, "st_abc", info.SyncTopic)
	require.NotNil(t, info.Limits)
	assert.Equal(t, int64(1000), info.Limits.Messages)
	require.NotNil(t, info.Stats)
	assert.Equal(t, int64(958), info.Stats.MessagesRemaining)
}

func TestReserveTopic(t *testing.T) {
	t.Run("Succeeds", func(t *testing.T) {
		var gotBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/account/reservation", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		err := c.ReserveTopic(context.Background(), NewUser("phil", "secret"), "mytopic", PermissionDenyAll)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"topic": "mytopic", "everyone": "deny-all"}, gotBody)
	})

	t.Run("InvalidTopic", func(t *testing.T) {
		c := newTestClient(t, DefaultServer)
		err := c.ReserveTopic(context.Background(), NewUser("phil", "secret"), "bad topic!", PermissionReadOnly)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidTopic))
	})
}

func TestUserStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/stats", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"visitorAttachmentBytesTotal":1000,"visitorAttachmentBytesUsed":400}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	stats, err := c.UserStats(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(600), stats.AttachmentBytesRemaining())
	assert.True(t, stats.AttachmentAllowed(600))
	assert.False(t, stats.AttachmentAllowed(601))
}

func TestAttachmentBytesRemainingFloor(t *testing.T) {
	stats := &UserStats{VisitorAttachmentBytesTotal: 100, VisitorAttachmentBytesUsed: 150}
	assert.Equal(t, int64(0), stats.AttachmentBytesRemaining())
}
