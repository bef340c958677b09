// Package sos relays emergency alerts: it persists the alert, texts the
// user's emergency contacts & pushes a notification to the user's devices.
package sos

import (
	"context"
	"errors"
	"time"

	"github.com/Daskott/haven/server/models"
	"github.com/Daskott/haven/shared"
)

var (
	ErrNoTokens        = errors.New("no tokens found")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrAlertIDRequired = errors.New("alert id required")
)

type AlertStore interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	// ListAlerts returns every alert, newest first
	ListAlerts(ctx context.Context) ([]models.Alert, error)
	// CancelAlert returns models.ErrAlertNotFound for unknown ids
	CancelAlert(ctx context.Context, id string, cancelledAt time.Time) error
}

type UserDirectory interface {
	// FindUser returns models.ErrUserNotFound for unknown ids
	FindUser(ctx context.Context, id string) (*models.User, error)
	// SaveDeviceTokens persists 'tokens' as the user's token set, creating the user if missing
	SaveDeviceTokens(ctx context.Context, userID string, tokens []string) error
}

type ProfileStore interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
	// CreateUser reports false when a user with the same id already exists
	CreateUser(ctx context.Context, user *models.User) (bool, error)
	UpdateProfile(ctx context.Context, id, name, phone string, contacts []models.Contact) error
}

// Store is implemented by every storage driver
type Store interface {
	AlertStore
	UserDirectory
	ProfileStore
}

type SmsSender interface {
	// SendSMS returns the provider's message id
	SendSMS(ctx context.Context, to, body string) (string, error)
}

type PushSender interface {
	SendMulticast(ctx context.Context, msg shared.PushMessage) (*shared.PushResult, error)
}
