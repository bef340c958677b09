package models

// Contact is an emergency contact. Phone is stored exactly as entered and
// only normalized when a message is sent.
type Contact struct {
	ID       uint   `json:"-" gorm:"primarykey"`
	UserID   string `json:"-" gorm:"not null;index"`
	Position int    `json:"-" gorm:"not null;default:0"`
	Name     string `json:"name" validate:"notblank"`
	Phone    string `json:"phone" validate:"notblank"`
}
