package models

import (
	"encoding/json"
	"time"
)

const (
	ACTIVE_ALERT    = "active"
	CANCELLED_ALERT = "cancelled"
)

type Alert struct {
	ID          string     `gorm:"primarykey"`
	UserID      string     `gorm:"not null;index"`
	Lat         Coordinate `gorm:"type:text"`
	Lon         Coordinate `gorm:"type:text"`
	Status      string     `gorm:"not null;default:active"`
	CreatedAt   time.Time  `gorm:"index"`
	CancelledAt *time.Time
}

// MarshalJSON renders the alert the way clients know it, with the id
// repeated as 'alertId'.
func (alert Alert) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string     `json:"id"`
		AlertID     string     `json:"alertId"`
		UserID      string     `json:"userId"`
		Lat         Coordinate `json:"lat"`
		Lon         Coordinate `json:"lon"`
		CreatedAt   time.Time  `json:"createdAt"`
		Status      string     `json:"status"`
		CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	}{
		ID:          alert.ID,
		AlertID:     alert.ID,
		UserID:      alert.UserID,
		Lat:         alert.Lat,
		Lon:         alert.Lon,
		CreatedAt:   alert.CreatedAt,
		Status:      alert.Status,
		CancelledAt: alert.CancelledAt,
	})
}
