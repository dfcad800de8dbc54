package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kart-io/ntfygo/pkg/errors"
	"github.com/kart-io/ntfygo/pkg/filter"
)

// Permission is a reservation access level for everyone other than the
// reserving user.
type Permission string

const (
	// PermissionReadWrite lets everyone read and publish.
	PermissionReadWrite Permission = "read-write"
	// PermissionReadOnly lets everyone read but not publish.
	PermissionReadOnly Permission = "read-only"
	// PermissionWriteOnly lets everyone publish but not read.
	PermissionWriteOnly Permission = "write-only"
	// PermissionDenyAll restricts the topic to the reserving user.
	PermissionDenyAll Permission = "deny-all"
)

// TokenDetails describes an access token issued by the server.
type TokenDetails struct {
	Token      string `json:"token"`
	LastAccess int64  `json:"last_access"`
	LastOrigin string `json:"last_origin"`
	Expires    int64  `json:"expires"`
}

// AccountLimits holds the server-imposed limits of an account tier.
type AccountLimits struct {
	Basis                    string `json:"basis"`
	Messages                 int64  `json:"messages"`
	MessagesExpiryDuration   int64  `json:"messages_expiry_duration"`
	Emails                   int64  `json:"emails"`
	Reservations             int64  `json:"reservations"`
	AttachmentTotalSize      int64  `json:"attachment_total_size"`
	AttachmentFileSize       int64  `json:"attachment_file_size"`
	AttachmentExpiryDuration int64  `json:"attachment_expiry_duration"`
}

// AccountStats holds current usage counters of an account.
type AccountStats struct {
	Messages                     int64 `json:"messages"`
	MessagesRemaining            int64 `json:"messages_remaining"`
	Emails                       int64 `json:"emails"`
	EmailsRemaining              int64 `json:"emails_remaining"`
	Reservations                 int64 `json:"reservations"`
	ReservationsRemaining        int64 `json:"reservations_remaining"`
	AttachmentTotalSize          int64 `json:"attachment_total_size"`
	AttachmentTotalSizeRemaining int64 `json:"attachment_total_size_remaining"`
}

// AccountInfo is the account detail record returned by the server.
type AccountInfo struct {
	Username  string         `json:"username"`
	Role      string         `json:"role"`
	SyncTopic string         `json:"sync_topic"`
	Limits    *AccountLimits `json:"limits"`
	Stats     *AccountStats  `json:"stats"`
}

// UserStats is the per-user usage summary.
type UserStats struct {
	AttachmentTotalSize          int64 `json:"attachmentTotalSize"`
	AttachmentTotalSizeRemaining int64 `json:"attachmentTotalSizeRemaining"`
	VisitorAttachmentBytesTotal  int64 `json:"visitorAttachmentBytesTotal"`
	VisitorAttachmentBytesUsed   int64 `json:"visitorAttachmentBytesUsed"`
}

// AttachmentBytesRemaining returns how many attachment bytes the visitor
// allowance still permits.
func (s *UserStats) AttachmentBytesRemaining() int64 {
	remaining := s.VisitorAttachmentBytesTotal - s.VisitorAttachmentBytesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AttachmentAllowed reports whether an attachment of the given size fits the
// visitor allowance.
func (s *UserStats) AttachmentAllowed(size int64) bool {
	return size <= s.AttachmentBytesRemaining()
}

// SignUp creates a new account on the server.
func (c *Client) SignUp(ctx context.Context, username, password string) error {
	if username == "" {
		return errors.New(errors.CodeInvalidParameter, "username cannot be empty")
	}
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	status, _, err := c.do(ctx, http.MethodPost, "v1/account", payload, nil, c.requestTimeout)
	if err != nil {
		return err
	}
	if err := errors.ClassifyPublishStatus(status); err != nil {
		c.logger.Warn("sign up failed", "username", username, "status", status)
		return err
	}
	c.logger.Info("account created", "username", username)
	return nil
}

// ChangePassword replaces the password of the authenticated account.
func (c *Client) ChangePassword(ctx context.Context, user *User, currentPassword, newPassword string) error {
	if user == nil {
		return errors.New(errors.CodeMissingCredentials, "user is required")
	}
	if newPassword == "" {
		return errors.New(errors.CodeInvalidParameter, "new password cannot be empty")
	}
	payload, err := json.Marshal(map[string]string{
		"password":     currentPassword,
		"new_password": newPassword,
	})
	if err != nil {
		return err
	}

	status, _, err := c.do(ctx, http.MethodPost, "v1/account/password", payload, user, c.requestTimeout)
	if err != nil {
		return err
	}
	if err := errors.ClassifyPublishStatus(status); err != nil {
		return err
	}
	c.logger.Info("password changed", "user", userLabel(user))
	return nil
}

// GenerateToken issues a new access token for the authenticated account.
func (c *Client) GenerateToken(ctx context.Context, user *User) (*TokenDetails, error) {
	if user == nil {
		return nil, errors.New(errors.CodeMissingCredentials, "user is required")
	}

	status, body, err := c.do(ctx, http.MethodPost, "v1/account/token", nil, user, c.requestTimeout)
	if err != nil {
		return nil, err
	}
	if err := errors.ClassifyPublishStatus(status); err != nil {
		return nil, err
	}

	var details TokenDetails
	if err := decodeInto(body, &details); err != nil {
		return nil, err
	}
	c.logger.Info("token generated", "user", userLabel(user))
	return &details, nil
}

// AccountInfo retrieves the account record of the authenticated user.
func (c *Client) AccountInfo(ctx context.Context, user *User) (*AccountInfo, error) {
	if user == nil {
		return nil, errors.New(errors.CodeMissingCredentials, "user is required")
	}

	status, body, err := c.do(ctx, http.MethodGet, "v1/account", nil, user, c.requestTimeout)
	if err != nil {
		return nil, err
	}
	if err := errors.ClassifyPublishStatus(status); err != nil {
		return nil, err
	}

	var info AccountInfo
	if err := decodeInto(body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ReserveTopic claims a topic for the authenticated user and sets the access
// level everyone else gets.
func (c *Client) ReserveTopic(ctx context.Context, user *User, topic string, everyone Permission) error {
	if user == nil {
		return errors.New(errors.CodeMissingCredentials, "user is required")
	}
	if err := filter.ValidateTopic(topic); err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]string{
		"topic":    topic,
		"everyone": string(everyone),
	})
	if err != nil {
		return err
	}

	status, _, err := c.do(ctx, http.MethodPost, "v1/account/reservation", payload, user, c.requestTimeout)
	if err != nil {
		return err
	}
	if err := errors.ClassifyPublishStatus(status); err != nil {
		return err
	}
	c.logger.Info("topic reserved", "topic", topic, "everyone", string(everyone))
	return nil
}

// UserStats retrieves the usage summary for the calling user or visitor.
func (c *Client) UserStats(ctx context.Context, user *User) (*UserStats, error) {
	status, body, err := c.do(ctx, http.MethodGet, "user/stats", nil, user, c.requestTimeout)
	if err != nil {
		return nil, err
	}
	if err := errors.ClassifyPublishStatus(status); err != nil {
		return nil, err
	}

	var stats UserStats
	if err := decodeInto(body, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
