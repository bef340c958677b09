// Package docstore keeps users & alerts in Cloud Firestore, in the
// 'users/{uid}' & 'alerts/{alertId}' documents the web client reads.
package docstore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/Daskott/haven/server/models"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	USERS_COLLECTION  = "users"
	ALERTS_COLLECTION = "alerts"
)

type contactDoc struct {
	Name  string `firestore:"name"`
	Phone string `firestore:"phone"`
}

type userDoc struct {
	Email    string       `firestore:"email"`
	Name     string       `firestore:"name"`
	Phone    string       `firestore:"phone"`
	Contacts []contactDoc `firestore:"contacts"`
	Tokens   []string     `firestore:"tokens"`
}

type alertDoc struct {
	AlertID     string      `firestore:"alertId"`
	UserID      string      `firestore:"userId"`
	Lat         interface{} `firestore:"lat"`
	Lon         interface{} `firestore:"lon"`
	CreatedAt   time.Time   `firestore:"createdAt"`
	Status      string      `firestore:"status"`
	CancelledAt *time.Time  `firestore:"cancelledAt,omitempty"`
}

type Store struct {
	client *firestore.Client
}

func New(ctx context.Context, app *firebase.App) (*Store, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "docstore: unable to create firestore client")
	}

	return &Store{client: client}, nil
}

// NewWithClient is used when the firestore client is built elsewhere e.g. against the emulator
func NewWithClient(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) CreateAlert(ctx context.Context, alert *models.Alert) error {
	lat, err := alert.Lat.Interface()
	if err != nil {
		return errors.Wrap(err, "docstore: invalid latitude")
	}

	lon, err := alert.Lon.Interface()
	if err != nil {
		return errors.Wrap(err, "docstore: invalid longitude")
	}

	_, err = s.alerts().Doc(alert.ID).Set(ctx, alertDoc{
		AlertID:     alert.ID,
		UserID:      alert.UserID,
		Lat:         lat,
		Lon:         lon,
		CreatedAt:   alert.CreatedAt,
		Status:      alert.Status,
		CancelledAt: alert.CancelledAt,
	})

	return errors.Wrapf(err, "docstore: unable to create alert %v", alert.ID)
}

func (s *Store) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	snapshots, err := s.alerts().OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Wrap(err, "docstore: unable to list alerts")
	}

	alerts := make([]models.Alert, 0, len(snapshots))
	for _, snapshot := range snapshots {
		alert, err := toAlert(snapshot)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}

	return alerts, nil
}

func (s *Store) FindAlert(ctx context.Context, id string) (*models.Alert, error) {
	snapshot, err := s.alerts().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, models.ErrAlertNotFound
	}

	if err != nil {
		return nil, errors.Wrapf(err, "docstore: unable to fetch alert %v", id)
	}

	return toAlert(snapshot)
}

func (s *Store) CancelAlert(ctx context.Context, id string, cancelledAt time.Time) error {
	_, err := s.alerts().Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: models.CANCELLED_ALERT},
		{Path: "cancelledAt", Value: cancelledAt},
	})
	if status.Code(err) == codes.NotFound {
		return models.ErrAlertNotFound
	}

	return errors.Wrapf(err, "docstore: unable to cancel alert %v", id)
}

func (s *Store) FindUser(ctx context.Context, id string) (*models.User, error) {
	snapshot, err := s.users().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, models.ErrUserNotFound
	}

	if err != nil {
		return nil, errors.Wrapf(err, "docstore: unable to fetch user %v", id)
	}

	doc := userDoc{}
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, errors.Wrapf(err, "docstore: malformed user %v", id)
	}

	user := &models.User{
		ID:           id,
		Email:        doc.Email,
		Name:         doc.Name,
		Phone:        doc.Phone,
		Contacts:     make([]models.Contact, 0, len(doc.Contacts)),
		DeviceTokens: models.DeviceTokensFrom(id, doc.Tokens),
	}
	user.CreatedAt = snapshot.CreateTime
	user.UpdatedAt = snapshot.UpdateTime

	for i, contact := range doc.Contacts {
		user.Contacts = append(user.Contacts, models.Contact{UserID: id, Position: i, Name: contact.Name, Phone: contact.Phone})
	}

	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) (bool, error) {
	_, err := s.users().Doc(user.ID).Create(ctx, userDoc{
		Email:    user.Email,
		Name:     user.Name,
		Phone:    user.Phone,
		Contacts: toContactDocs(user.Contacts),
		Tokens:   user.Tokens(),
	})
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}

	if err != nil {
		return false, errors.Wrapf(err, "docstore: unable to create user %v", user.ID)
	}

	return true, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id, name, phone string, contacts []models.Contact) error {
	_, err := s.users().Doc(id).Update(ctx, []firestore.Update{
		{Path: "name", Value: name},
		{Path: "phone", Value: phone},
		{Path: "contacts", Value: toContactDocs(contacts)},
	})
	if status.Code(err) == codes.NotFound {
		return models.ErrUserNotFound
	}

	return errors.Wrapf(err, "docstore: unable to update user %v", id)
}

// SaveDeviceTokens merges the token set into the user document, creating it if needed
func (s *Store) SaveDeviceTokens(ctx context.Context, userID string, tokens []string) error {
	_, err := s.users().Doc(userID).Set(ctx, map[string]interface{}{"tokens": tokens}, firestore.MergeAll)
	return errors.Wrapf(err, "docstore: unable to save tokens for %v", userID)
}

func (s *Store) users() *firestore.CollectionRef {
	return s.client.Collection(USERS_COLLECTION)
}

func (s *Store) alerts() *firestore.CollectionRef {
	return s.client.Collection(ALERTS_COLLECTION)
}

func toAlert(snapshot *firestore.DocumentSnapshot) (*models.Alert, error) {
	doc := alertDoc{}
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, errors.Wrapf(err, "docstore: malformed alert %v", snapshot.Ref.ID)
	}

	lat, err := models.CoordinateOf(doc.Lat)
	if err != nil {
		return nil, err
	}

	lon, err := models.CoordinateOf(doc.Lon)
	if err != nil {
		return nil, err
	}

	return &models.Alert{
		ID:          snapshot.Ref.ID,
		UserID:      doc.UserID,
		Lat:         lat,
		Lon:         lon,
		Status:      doc.Status,
		CreatedAt:   doc.CreatedAt,
		CancelledAt: doc.CancelledAt,
	}, nil
}

func toContactDocs(contacts []models.Contact) []contactDoc {
	docs := make([]contactDoc, 0, len(contacts))
	for _, contact := range contacts {
		docs = append(docs, contactDoc{Name: contact.Name, Phone: contact.Phone})
	}
	return docs
}
