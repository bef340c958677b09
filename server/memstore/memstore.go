// Package memstore keeps users & alerts in process memory. Nothing
// survives a restart, it backs the 'memory' store driver & tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Daskott/haven/server/models"
)

type Store struct {
	mu     sync.RWMutex
	alerts map[string]models.Alert
	users  map[string]models.User
}

func New() *Store {
	return &Store{
		alerts: make(map[string]models.Alert),
		users:  make(map[string]models.User),
	}
}

func (s *Store) CreateAlert(ctx context.Context, alert *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts[alert.ID] = copyAlert(*alert)
	return nil
}

func (s *Store) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts := make([]models.Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		alerts = append(alerts, copyAlert(alert))
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].ID > alerts[j].ID
		}
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})

	return alerts, nil
}

func (s *Store) FindAlert(ctx context.Context, id string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, models.ErrAlertNotFound
	}

	alert = copyAlert(alert)
	return &alert, nil
}

func (s *Store) CancelAlert(ctx context.Context, id string, cancelledAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return models.ErrAlertNotFound
	}

	alert.Status = models.CANCELLED_ALERT
	alert.CancelledAt = &cancelledAt
	s.alerts[id] = alert

	return nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	user = copyUser(user)
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return false, nil
	}

	now := time.Now().UTC()
	created := copyUser(*user)
	created.CreatedAt, created.UpdatedAt = now, now
	s.users[user.ID] = created

	return true, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id, name, phone string, contacts []models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.ErrUserNotFound
	}

	user.Name = name
	user.Phone = phone
	user.Contacts = make([]models.Contact, len(contacts))
	for i, contact := range contacts {
		user.Contacts[i] = models.Contact{UserID: id, Position: i, Name: contact.Name, Phone: contact.Phone}
	}
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user

	return nil
}

func (s *Store) SaveDeviceTokens(ctx context.Context, userID string, tokens []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		user = models.User{ID: userID}
		user.CreatedAt = time.Now().UTC()
	}

	user.DeviceTokens = models.DeviceTokensFrom(userID, tokens)
	user.UpdatedAt = time.Now().UTC()
	s.users[userID] = user

	return nil
}

func (s *Store) Close() error {
	return nil
}

func copyAlert(alert models.Alert) models.Alert {
	alert.Lat = append(models.Coordinate(nil), alert.Lat...)
	alert.Lon = append(models.Coordinate(nil), alert.Lon...)
	if alert.CancelledAt != nil {
		cancelledAt := *alert.CancelledAt
		alert.CancelledAt = &cancelledAt
	}
	return alert
}

func copyUser(user models.User) models.User {
	user.Contacts = append([]models.Contact(nil), user.Contacts...)
	user.DeviceTokens = append([]models.DeviceToken(nil), user.DeviceTokens...)
	return user
}
