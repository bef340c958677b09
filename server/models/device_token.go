package models

import "time"

// DeviceToken is a push destination registered by one of the user's devices.
type DeviceToken struct {
	ID        uint      `json:"-" gorm:"primarykey"`
	UserID    string    `json:"-" gorm:"not null;uniqueIndex:idx_user_token"`
	Token     string    `json:"token" gorm:"not null;uniqueIndex:idx_user_token"`
	CreatedAt time.Time `json:"-"`
}
