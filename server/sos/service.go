package sos

import (
	"context"
	"fmt"
	"time"

	"github.com/Daskott/haven/server/logger"
	"github.com/Daskott/haven/server/models"
	"github.com/Daskott/haven/shared"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	SMS_SENT   = "sent"
	SMS_FAILED = "failed"

	PUSH_BODY = "Tap to view live location"
)

var logg = logger.NewLogger()

type SmsResult struct {
	Contact string `json:"contact"`
	Status  string `json:"status"`
	Sid     string `json:"sid,omitempty"`
	Error   string `json:"error,omitempty"`
}

type AlertResult struct {
	AlertID     string            `json:"alertId"`
	SmsResults  []SmsResult       `json:"smsResults"`
	PushResults shared.PushResult `json:"pushResults"`

	// Saved is set once the alert is in the store
	Saved bool `json:"-"`
}

type Service struct {
	alerts         AlertStore
	users          UserDirectory
	sms            SmsSender
	push           PushSender
	smsConcurrency int

	now   func() time.Time
	newID func() string
}

// NewService returns the alert orchestrator. Contacts are texted
// 'smsConcurrency' at a time, values below 1 mean one at a time.
func NewService(alerts AlertStore, users UserDirectory, sms SmsSender, push PushSender, smsConcurrency int) *Service {
	if smsConcurrency < 1 {
		smsConcurrency = 1
	}

	return &Service{
		alerts:         alerts,
		users:          users,
		sms:            sms,
		push:           push,
		smsConcurrency: smsConcurrency,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          uuid.NewString,
	}
}

// CreateAlert saves a new active alert then notifies the user's contacts & devices.
// Individual sms/push failures are reported in the result. A returned error means
// the alert couldn't be saved or the user couldn't be looked up, the result then
// holds whatever was done up to that point.
func (s *Service) CreateAlert(ctx context.Context, userID string, lat, lon models.Coordinate) (*AlertResult, error) {
	if userID == "" || lat == nil || lon == nil {
		return nil, ErrInvalidRequest
	}

	result := &AlertResult{
		AlertID:     s.newID(),
		SmsResults:  []SmsResult{},
		PushResults: shared.EmptyPushResult(),
	}

	alert := &models.Alert{
		ID:        result.AlertID,
		UserID:    userID,
		Lat:       lat,
		Lon:       lon,
		Status:    models.ACTIVE_ALERT,
		CreatedAt: s.now(),
	}
	if err := s.alerts.CreateAlert(ctx, alert); err != nil {
		return result, errors.Wrap(err, "unable to save alert")
	}
	result.Saved = true
	logg.Infof("Created alert %v for %v", alert.ID, userID)

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return result, err
	}

	mapsURL := MapsURL(lat, lon)
	result.SmsResults = s.textContacts(ctx, user.Contacts, smsBody(userID, mapsURL))

	tokens := user.Tokens()
	if len(tokens) == 0 {
		return result, nil
	}

	pushResult, err := s.push.SendMulticast(ctx, shared.PushMessage{
		Tokens: tokens,
		Title:  fmt.Sprintf("SOS from %s", user.DisplayName()),
		Body:   PUSH_BODY,
		Link:   mapsURL,
		Data: map[string]string{
			"alertId": alert.ID,
			"lat":     lat.String(),
			"lon":     lon.String(),
			"mapsUrl": mapsURL,
		},
	})
	if err != nil {
		logg.Errorf("Push for alert %v failed: %v", alert.ID, err)
		result.PushResults.Error = err.Error()
		return result, nil
	}
	result.PushResults = *pushResult

	return result, nil
}

// RegisterToken adds 'token' to the user's token set & returns the full set.
// Tokens that are already registered are not written again.
func (s *Service) RegisterToken(ctx context.Context, userID, token string) ([]string, error) {
	if userID == "" || token == "" {
		return nil, ErrInvalidRequest
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tokens := user.Tokens()
	if user.HasToken(token) {
		return tokens, nil
	}

	tokens = append(tokens, token)
	if err := s.users.SaveDeviceTokens(ctx, userID, tokens); err != nil {
		return nil, errors.Wrap(err, "unable to save device tokens")
	}
	logg.Infof("Registered token for %v", userID)

	return tokens, nil
}

func (s *Service) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	alerts, err := s.alerts.ListAlerts(ctx)
	if err != nil {
		return nil, err
	}

	if alerts == nil {
		alerts = []models.Alert{}
	}
	return alerts, nil
}

// CancelAlert marks the alert as cancelled. Cancelling an already
// cancelled alert succeeds & moves its cancellation time.
func (s *Service) CancelAlert(ctx context.Context, id string) error {
	if id == "" {
		return ErrAlertIDRequired
	}

	if err := s.alerts.CancelAlert(ctx, id, s.now()); err != nil {
		return err
	}
	logg.Infof("Cancelled alert %v", id)

	return nil
}

// SendTestNotification pushes 'title' & 'body' to every device of the user
func (s *Service) SendTestNotification(ctx context.Context, userID, title, body string) (*shared.PushResult, error) {
	if userID == "" || title == "" || body == "" {
		return nil, ErrInvalidRequest
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tokens := user.Tokens()
	if len(tokens) == 0 {
		return nil, ErrNoTokens
	}

	return s.push.SendMulticast(ctx, shared.PushMessage{Tokens: tokens, Title: title, Body: body})
}

// findUser treats unknown users as users without contacts or tokens
func (s *Service) findUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindUser(ctx, userID)
	if errors.Is(err, models.ErrUserNotFound) {
		return &models.User{ID: userID}, nil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to look up user %v", userID)
	}

	return user, nil
}

// textContacts sends 'body' to every contact. Results keep the order of 'contacts'
// no matter how many messages are in flight.
func (s *Service) textContacts(ctx context.Context, contacts []models.Contact, body string) []SmsResult {
	results := make([]SmsResult, len(contacts))

	group := errgroup.Group{}
	group.SetLimit(s.smsConcurrency)
	for i, contact := range contacts {
		i, contact := i, contact
		group.Go(func() error {
			results[i] = s.text(ctx, contact, body)
			return nil
		})
	}
	group.Wait()

	return results
}

func (s *Service) text(ctx context.Context, contact models.Contact, body string) SmsResult {
	to := NormalizePhone(contact.Phone)

	sid, err := s.sms.SendSMS(ctx, to, body)
	if err != nil {
		logg.Warnf("SMS to %v failed: %v", to, err)
		return SmsResult{Contact: contact.Phone, Status: SMS_FAILED, Error: err.Error()}
	}

	return SmsResult{Contact: to, Status: SMS_SENT, Sid: sid}
}

func smsBody(userID, mapsURL string) string {
	return fmt.Sprintf("SOS Alert!\nUser: %s\nLocation: %s", userID, mapsURL)
}
