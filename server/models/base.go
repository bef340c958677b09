package models

import (
	"errors"
	"time"
)

var (
	ErrAlertNotFound = errors.New("alert not found")
	ErrUserNotFound  = errors.New("user not found")
)

type BaseModel struct {
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
