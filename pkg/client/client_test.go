package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ntfygo/pkg/errors"
	"github.com/kart-io/ntfygo/pkg/logger"
	"github.com/kart-io/ntfygo/pkg/message"
)

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		c, err := New("")
		require.NoError(t, err)
		assert.Equal(t, DefaultServer, c.ServerURL())
		assert.Equal(t, defaultRequestTimeout, c.requestTimeout)
		assert.Equal(t, defaultPublishTimeout, c.publishTimeout)
	})

	t.Run("TrimsTrailingSlash", func(t *testing.T) {
		c, err := New("https://example.com/")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", c.ServerURL())
	})

	t.Run("RejectsBadScheme", func(t *testing.T) {
		_, err := New("ftp://example.com")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParameter))
	})

	t.Run("OptionErrorPropagates", func(t *testing.T) {
		_, err := New("", WithLogger(nil))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParameter))
	})

	t.Run("Options", func(t *testing.T) {
		c, err := New("",
			WithUserAgent("custom/2.0"),
			WithRequestTimeout(time.Second),
			WithPublishTimeout(2*time.Second),
			WithLogger(logger.Discard),
		)
		require.NoError(t, err)
		assert.Equal(t, "custom/2.0", c.userAgent)
		assert.Equal(t, time.Second, c.requestTimeout)
		assert.Equal(t, 2*time.Second, c.publishTimeout)
	})
}

func TestPublish(t *testing.T) {
	t.Run("SendsTopicAndHeaders", func(t *testing.T) {
		var gotPath, gotAuth, gotAgent, gotContentType string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			gotAgent = r.Header.Get("User-Agent")
			gotContentType = r.Header.Get("Content-Type")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c, err := New(server.URL, WithLogger(logger.Discard))
		require.NoError(t, err)

		msg := message.NewSending().
			SetTitle("Disk space").
			SetMessage("Disk space is low").
			SetPriority(message.PriorityHigh)
		user := NewUser("phil", "secret")

		require.NoError(t, c.Publish(context.Background(), "mytopic", msg, user))

		assert.Equal(t, "/", gotPath)
		assert.Equal(t, "Basic cGhpbDpzZWNyZXQ=", gotAuth)
		assert.Equal(t, defaultUserAgent, gotAgent)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, "mytopic", gotBody["topic"])
		assert.Equal(t, "Disk space", gotBody["title"])
		assert.Equal(t, float64(4), gotBody["priority"])
	})

	t.Run("DoesNotMutateMessage", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c, err := New(server.URL, WithLogger(logger.Discard))
		require.NoError(t, err)

		msg := message.NewSending().SetMessage("hello")
		require.NoError(t, c.Publish(context.Background(), "mytopic", msg, nil))
		assert.Empty(t, msg.Topic)
	})

	t.Run("StatusMapping", func(t *testing.T) {
		tests := []struct {
			name     string
			status   int
			wantCode errors.ErrorCode
		}{
			{"Unauthorized401", http.StatusUnauthorized, errors.CodeUnauthorized},
			{"Forbidden403", http.StatusForbidden, errors.CodeUnauthorized},
			{"TooLarge413", http.StatusRequestEntityTooLarge, errors.CodeEntityTooLarge},
			{"RateLimited429", http.StatusTooManyRequests, errors.CodeTooManyRequests},
			{"ServerError500", http.StatusInternalServerError, errors.CodeUnexpectedStatus},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				}))
				defer server.Close()

				c, err := New(server.URL, WithLogger(logger.Discard))
				require.NoError(t, err)

				err = c.Publish(context.Background(), "mytopic", message.NewSending(), nil)
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			})
		}
	})

	t.Run("InvalidTopicFailsBeforeRequest", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		c, err := New(server.URL, WithLogger(logger.Discard))
		require.NoError(t, err)

		err = c.Publish(context.Background(), "bad topic!", message.NewSending(), nil)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidTopic))
		assert.False(t, called)
	})

	t.Run("NilMessage", func(t *testing.T) {
		c, err := New("", WithLogger(logger.Discard))
		require.NoError(t, err)

		err = c.Publish(context.Background(), "mytopic", nil, nil)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParameter))
	})
}

func TestCheckAuthentication(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		anonymous   bool
		wantAllowed bool
		wantErr     bool
	}{
		{"Allowed200", http.StatusOK, false, true, false},
		{"Denied401", http.StatusUnauthorized, false, false, false},
		{"Denied403", http.StatusForbidden, false, false, false},
		{"LegacyAnonymous404", http.StatusNotFound, true, true, false},
		{"Authenticated404IsFatal", http.StatusNotFound, false, false, true},
		{"ServerError500", http.StatusInternalServerError, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c, err := New(server.URL, WithLogger(logger.Discard))
			require.NoError(t, err)

			var user *User
			if !tt.anonymous {
				user = NewTokenUser("tk_test")
			}

			allowed, err := c.CheckAuthentication(context.Background(), "mytopic", user)
			assert.Equal(t, "/mytopic/auth", gotPath)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.CodeUnexpectedStatus))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, allowed)
		})
	}
}

func TestUser(t *testing.T) {
	t.Run("BasicHeader", func(t *testing.T) {
		header, err := NewUser("phil", "secret").AuthHeader()
		require.NoError(t, err)
		assert.Equal(t, "Basic cGhpbDpzZWNyZXQ=", header)
	})

	t.Run("EmptyPasswordAllowed", func(t *testing.T) {
		header, err := NewUser("phil", "").AuthHeader()
		require.NoError(t, err)
		assert.Equal(t, "Basic cGhpbDo=", header)
	})

	t.Run("TokenHeader", func(t *testing.T) {
		header, err := NewTokenUser("tk_abc123").AuthHeader()
		require.NoError(t, err)
		assert.Equal(t, "Bearer tk_abc123", header)
	})

	t.Run("NoCredentials", func(t *testing.T) {
		_, err := (&User{}).AuthHeader()
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeMissingCredentials))
	})

	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "phil", NewUser("phil", "secret").String())
		assert.Equal(t, "token user", NewTokenUser("tk_abc123").String())
	})
}
