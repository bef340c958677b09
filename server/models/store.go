package models

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SqlStore keeps users & alerts in an encrypted sqlite database
type SqlStore struct {
	db     *gorm.DB
	dbPath string
}

// NewSqlStore opens (or creates) the db in 'dbRootDir' & auto-migrates the schema
func NewSqlStore(passPhrase string, dbRootDir string) (*SqlStore, error) {
	dbPath, err := DbFilePath(dbRootDir)
	if err != nil {
		return nil, err
	}

	db, err := openDB(passPhrase, dbPath)
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&User{}, &Contact{}, &DeviceToken{}, &Alert{})
	if err != nil {
		return nil, errors.Wrap(err, "auto-migrate")
	}

	logg.Infof("Using sqlite db at %v", dbPath)
	return &SqlStore{db: db, dbPath: dbPath}, nil
}

func (store *SqlStore) Path() string {
	return store.dbPath
}

// Snapshot writes a consistent copy of the db, encrypted with the same key,
// to 'destFilePath'. The file must not exist yet.
func (store *SqlStore) Snapshot(destFilePath string) error {
	return errors.Wrap(store.db.Exec("VACUUM INTO ?", destFilePath).Error, "snapshot")
}

func (store *SqlStore) Close() error {
	sqlDB, err := store.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ---------------------------------------------------------------------------------//
// Alerts
// --------------------------------------------------------------------------------//

func (store *SqlStore) CreateAlert(ctx context.Context, alert *Alert) error {
	return errors.Wrap(store.db.WithContext(ctx).Create(alert).Error, "create alert")
}

// ListAlerts returns every alert, newest first
func (store *SqlStore) ListAlerts(ctx context.Context) ([]Alert, error) {
	alerts := []Alert{}

	err := store.db.WithContext(ctx).Order("created_at desc").Find(&alerts).Error
	if err != nil {
		return nil, errors.Wrap(err, "list alerts")
	}

	return alerts, nil
}

func (store *SqlStore) FindAlert(ctx context.Context, id string) (*Alert, error) {
	alert := Alert{}

	err := store.db.WithContext(ctx).First(&alert, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAlertNotFound
	}

	if err != nil {
		return nil, errors.Wrapf(err, "find alert %v", id)
	}

	return &alert, nil
}

func (store *SqlStore) CancelAlert(ctx context.Context, id string, cancelledAt time.Time) error {
	res := store.db.WithContext(ctx).Model(&Alert{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       CANCELLED_ALERT,
		"cancelled_at": cancelledAt,
	})

	if res.Error != nil {
		return errors.Wrapf(res.Error, "cancel alert %v", id)
	}

	if res.RowsAffected == 0 {
		return ErrAlertNotFound
	}

	return nil
}

// ---------------------------------------------------------------------------------//
// Users
// --------------------------------------------------------------------------------//

// FindUser returns the user with their contacts & device tokens in the order they were added
func (store *SqlStore) FindUser(ctx context.Context, id string) (*User, error) {
	user := User{}

	err := store.db.WithContext(ctx).
		Preload("Contacts", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Preload("DeviceTokens", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&user, "id = ?", id).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, errors.Wrapf(err, "find user %v", id)
	}

	return &user, nil
}

// CreateUser creates 'user' unless a user with the same id exists,
// & reports whether a record was created
func (store *SqlStore) CreateUser(ctx context.Context, user *User) (bool, error) {
	res := store.db.WithContext(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).Create(user)

	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "create user %v", user.ID)
	}

	return res.RowsAffected > 0, nil
}

// UpdateProfile replaces the user's name, phone & full contact list
func (store *SqlStore) UpdateProfile(ctx context.Context, id string, name, phone string, contacts []Contact) error {
	return store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":  name,
			"phone": phone,
		})

		if res.Error != nil {
			return errors.Wrapf(res.Error, "update user %v", id)
		}

		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}

		err := tx.Where("user_id = ?", id).Delete(&Contact{}).Error
		if err != nil {
			return errors.Wrapf(err, "clear contacts for user %v", id)
		}

		if len(contacts) == 0 {
			return nil
		}

		newContacts := make([]Contact, 0, len(contacts))
		for i, contact := range contacts {
			newContacts = append(newContacts, Contact{UserID: id, Position: i, Name: contact.Name, Phone: contact.Phone})
		}

		return errors.Wrapf(tx.Create(&newContacts).Error, "save contacts for user %v", id)
	})
}

// SaveDeviceTokens makes sure every token in 'tokens' is registered for the user,
// creating an empty user record if none exists
func (store *SqlStore) SaveDeviceTokens(ctx context.Context, userID string, tokens []string) error {
	return store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&User{ID: userID}).Error
		if err != nil {
			return errors.Wrapf(err, "ensure user %v", userID)
		}

		if len(tokens) == 0 {
			return nil
		}

		deviceTokens := DeviceTokensFrom(userID, tokens)
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&deviceTokens).Error
		return errors.Wrapf(err, "save device tokens for user %v", userID)
	})
}
