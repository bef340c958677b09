package sos

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Daskott/haven/server/memstore"
	"github.com/Daskott/haven/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store is down")

type failingAlertStore struct {
	*memstore.Store
}

func (failingAlertStore) CreateAlert(context.Context, *models.Alert) error {
	return errStoreDown
}

type failingUserDirectory struct {
	*memstore.Store
}

func (failingUserDirectory) FindUser(context.Context, string) (*models.User, error) {
	return nil, errStoreDown
}

func newTestService(store *memstore.Store, sms *fakeSmsSender, push *fakePushSender) *Service {
	service := NewService(store, store, sms, push, 1)

	ids := 0
	service.newID = func() string {
		ids++
		return fmt.Sprintf("alert-%d", ids)
	}

	clock := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	return service
}

func seedUser(t *testing.T, store *memstore.Store, user models.User, tokens ...string) {
	t.Helper()
	ctx := context.Background()

	_, err := store.CreateUser(ctx, &models.User{ID: user.ID})
	require.NoError(t, err)
	require.NoError(t, store.UpdateProfile(ctx, user.ID, user.Name, user.Phone, user.Contacts))
	if len(tokens) > 0 {
		require.NoError(t, store.SaveDeviceTokens(ctx, user.ID, tokens))
	}
}

func TestCreateAlert(t *testing.T) {
	ctx := context.Background()
	lat, lon := models.Coordinate("40.0"), models.Coordinate("-75.0")

	t.Run("Should text contacts with normalized numbers", func(t *testing.T) {
		store := memstore.New()
		sms := &fakeSmsSender{}
		push := &fakePushSender{}
		seedUser(t, store, models.User{ID: "u1", Contacts: []models.Contact{{Name: "Pepper", Phone: "202-555-0123"}}})

		result, err := newTestService(store, sms, push).CreateAlert(ctx, "u1", lat, lon)
		require.NoError(t, err)

		assert.Equal(t, []SmsResult{{Contact: "+2025550123", Status: SMS_SENT, Sid: "SM1"}}, result.SmsResults)
		assert.Equal(t, 0, result.PushResults.SuccessCount)
		assert.Equal(t, 0, result.PushResults.FailureCount)
		assert.Empty(t, result.PushResults.Responses)
		assert.Empty(t, push.messages, "Should skip push without tokens")

		require.Len(t, sms.sent, 1)
		assert.Equal(t, "SOS Alert!\nUser: u1\nLocation: https://maps.google.com/?q=40,-75", sms.sent[0].body)
	})

	t.Run("Should succeed for unknown user", func(t *testing.T) {
		store := memstore.New()
		service := newTestService(store, &fakeSmsSender{}, &fakePushSender{})

		result, err := service.CreateAlert(ctx, "ghost", lat, lon)
		require.NoError(t, err)
		assert.Empty(t, result.SmsResults)
		assert.NotNil(t, result.SmsResults)
		assert.Equal(t, 0, result.PushResults.SuccessCount)

		alerts, err := service.ListAlerts(ctx)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, result.AlertID, alerts[0].ID)
		assert.Equal(t, models.ACTIVE_ALERT, alerts[0].Status)
	})

	t.Run("Should report failed sms without failing the alert", func(t *testing.T) {
		store := memstore.New()
		sms := &fakeSmsSender{failTo: map[string]bool{"+5550000": true}}
		seedUser(t, store, models.User{ID: "u1", Contacts: []models.Contact{
			{Name: "Broken", Phone: "555-0000"},
			{Name: "Pepper", Phone: "+12025550123"},
		}})

		result, err := newTestService(store, sms, &fakePushSender{}).CreateAlert(ctx, "u1", lat, lon)
		require.NoError(t, err)
		require.Len(t, result.SmsResults, 2)

		assert.Equal(t, "555-0000", result.SmsResults[0].Contact, "Failed sends keep the raw phone")
		assert.Equal(t, SMS_FAILED, result.SmsResults[0].Status)
		assert.NotEmpty(t, result.SmsResults[0].Error)

		assert.Equal(t, "+12025550123", result.SmsResults[1].Contact)
		assert.Equal(t, SMS_SENT, result.SmsResults[1].Status)
	})

	t.Run("Should push to every token", func(t *testing.T) {
		store := memstore.New()
		push := &fakePushSender{failing: map[string]bool{"t2": true}}
		seedUser(t, store, models.User{ID: "u1", Name: "Tony"}, "t1", "t2")

		result, err := newTestService(store, &fakeSmsSender{}, push).CreateAlert(ctx, "u1", lat, lon)
		require.NoError(t, err)

		assert.Equal(t, 1, result.PushResults.SuccessCount)
		assert.Equal(t, 1, result.PushResults.FailureCount)
		require.Len(t, push.messages, 1)

		msg := push.messages[0]
		assert.Equal(t, []string{"t1", "t2"}, msg.Tokens)
		assert.Equal(t, "SOS from Tony", msg.Title)
		assert.Equal(t, PUSH_BODY, msg.Body)
		assert.Equal(t, "https://maps.google.com/?q=40,-75", msg.Link)
		assert.Equal(t, map[string]string{
			"alertId": result.AlertID,
			"lat":     "40",
			"lon":     "-75",
			"mapsUrl": "https://maps.google.com/?q=40,-75",
		}, msg.Data)
	})

	t.Run("Should use user id when user has no name", func(t *testing.T) {
		store := memstore.New()
		push := &fakePushSender{}
		require.NoError(t, store.SaveDeviceTokens(ctx, "u1", []string{"t1"}))

		_, err := newTestService(store, &fakeSmsSender{}, push).CreateAlert(ctx, "u1", lat, lon)
		require.NoError(t, err)
		assert.Equal(t, "SOS from u1", push.messages[0].Title)
	})

	t.Run("Should record push failure in results", func(t *testing.T) {
		store := memstore.New()
		push := &fakePushSender{err: errors.New("messaging unavailable")}
		seedUser(t, store, models.User{ID: "u1"}, "t1")

		result, err := newTestService(store, &fakeSmsSender{}, push).CreateAlert(ctx, "u1", lat, lon)
		require.NoError(t, err)
		assert.Equal(t, "messaging unavailable", result.PushResults.Error)
		assert.Equal(t, 0, result.PushResults.SuccessCount)
	})

	t.Run("Should fail when alert can't be saved", func(t *testing.T) {
		store := memstore.New()
		sms := &fakeSmsSender{}
		seedUser(t, store, models.User{ID: "u1", Contacts: []models.Contact{{Name: "Pepper", Phone: "2025550123"}}})

		service := newTestService(store, sms, &fakePushSender{})
		service.alerts = failingAlertStore{store}

		result, err := service.CreateAlert(ctx, "u1", lat, lon)
		assert.ErrorIs(t, err, errStoreDown)
		require.NotNil(t, result)
		assert.NotEmpty(t, result.AlertID)
		assert.False(t, result.Saved)
		assert.Empty(t, result.SmsResults)
		assert.Empty(t, sms.sent, "Should not notify anyone")
	})

	t.Run("Should fail when user lookup fails", func(t *testing.T) {
		store := memstore.New()
		service := newTestService(store, &fakeSmsSender{}, &fakePushSender{})
		service.users = failingUserDirectory{store}

		result, err := service.CreateAlert(ctx, "u1", lat, lon)
		assert.ErrorIs(t, err, errStoreDown)
		require.NotNil(t, result)
		assert.True(t, result.Saved)

		alerts, err := store.ListAlerts(ctx)
		require.NoError(t, err)
		assert.Len(t, alerts, 1, "Alert is saved before the lookup")
	})

	t.Run("Should require user id & coordinates", func(t *testing.T) {
		service := newTestService(memstore.New(), &fakeSmsSender{}, &fakePushSender{})

		_, err := service.CreateAlert(ctx, "", lat, lon)
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = service.CreateAlert(ctx, "u1", nil, lon)
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = service.CreateAlert(ctx, "u1", models.Coordinate("null"), lon)
		assert.NoError(t, err, "Explicit null counts as a coordinate")
	})
}

func TestCreateAlertPreservesContactOrder(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	contacts := []models.Contact{}
	for i := 0; i < 20; i++ {
		contacts = append(contacts, models.Contact{Name: fmt.Sprint(i), Phone: fmt.Sprintf("+1202555%04d", i)})
	}
	seedUser(t, store, models.User{ID: "u1", Contacts: contacts})

	service := NewService(store, store, &fakeSmsSender{}, &fakePushSender{}, 5)
	result, err := service.CreateAlert(ctx, "u1", models.Coordinate("1"), models.Coordinate("2"))
	require.NoError(t, err)

	require.Len(t, result.SmsResults, 20)
	for i, smsResult := range result.SmsResults {
		assert.Equal(t, contacts[i].Phone, smsResult.Contact)
		assert.Equal(t, SMS_SENT, smsResult.Status)
	}
}

func TestCreateAlertDistinctIDs(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	service := NewService(store, store, &fakeSmsSender{}, &fakePushSender{}, 1)

	first, err := service.CreateAlert(ctx, "u1", models.Coordinate("1"), models.Coordinate("2"))
	require.NoError(t, err)
	second, err := service.CreateAlert(ctx, "u1", models.Coordinate("1"), models.Coordinate("2"))
	require.NoError(t, err)

	assert.NotEqual(t, first.AlertID, second.AlertID)

	alerts, err := service.ListAlerts(ctx)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}

func TestRegisterToken(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	service := newTestService(store, &fakeSmsSender{}, &fakePushSender{})

	tokens, err := service.RegisterToken(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, tokens)

	tokens, err = service.RegisterToken(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, tokens, "Should not register the same token twice")

	tokens, err = service.RegisterToken(ctx, "u1", "t2")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, tokens)

	_, err = service.RegisterToken(ctx, "u1", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	service.users = failingUserDirectory{store}
	_, err = service.RegisterToken(ctx, "u1", "t3")
	assert.ErrorIs(t, err, errStoreDown)
}

func TestCancelAlert(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	service := newTestService(store, &fakeSmsSender{}, &fakePushSender{})

	result, err := service.CreateAlert(ctx, "u1", models.Coordinate("1"), models.Coordinate("2"))
	require.NoError(t, err)

	require.NoError(t, service.CancelAlert(ctx, result.AlertID))

	alerts, err := service.ListAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.CANCELLED_ALERT, alerts[0].Status)
	firstCancel := *alerts[0].CancelledAt

	t.Run("Should overwrite cancellation time on re-cancel", func(t *testing.T) {
		require.NoError(t, service.CancelAlert(ctx, result.AlertID))

		alert, err := store.FindAlert(ctx, result.AlertID)
		require.NoError(t, err)
		assert.True(t, alert.CancelledAt.After(firstCancel))
	})

	t.Run("Should not create unknown alerts", func(t *testing.T) {
		err := service.CancelAlert(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrAlertNotFound)

		alerts, err := service.ListAlerts(ctx)
		require.NoError(t, err)
		assert.Len(t, alerts, 1)
	})
}

func TestSendTestNotification(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	push := &fakePushSender{}
	service := newTestService(store, &fakeSmsSender{}, push)

	_, err := service.SendTestNotification(ctx, "u1", "Hi", "Testing")
	assert.ErrorIs(t, err, ErrNoTokens)

	require.NoError(t, store.SaveDeviceTokens(ctx, "u1", []string{"t1", "t2"}))

	result, err := service.SendTestNotification(ctx, "u1", "Hi", "Testing")
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)

	require.Len(t, push.messages, 1)
	assert.Equal(t, "Hi", push.messages[0].Title)
	assert.Empty(t, push.messages[0].Link)
	assert.Nil(t, push.messages[0].Data)

	_, err = service.SendTestNotification(ctx, "u1", "", "Testing")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
