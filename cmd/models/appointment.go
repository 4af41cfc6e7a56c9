package models

import (
	"time"

	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "Pending"
	StatusConfirmed  AppointmentStatus = "Confirmed"
	StatusInProgress AppointmentStatus = "InProgress"
	StatusCompleted  AppointmentStatus = "Completed"
	StatusCancelled  AppointmentStatus = "Cancelled"
)

// statusRank orders the forward path Pending -> Confirmed -> InProgress ->
// Completed. Cancelled sits outside the path and is reachable from any
// non-terminal status.
var statusRank = map[AppointmentStatus]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusInProgress: 2,
	StatusCompleted:  3,
}

func (s AppointmentStatus) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether next is reachable from s. Writing the
// current status again is a no-op and always allowed.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}

type Appointment struct {
	gorm.Model
	ClientID          uint              `gorm:"column:client_id;not null" json:"client_id"`
	ServiceID         uint              `gorm:"column:service_id;not null" json:"service_id"`
	VehicleID         *uint             `gorm:"column:vehicle_id" json:"vehicle_id,omitempty"`
	ResponsibleUserID *uint             `gorm:"column:responsible_user_id" json:"responsible_user_id,omitempty"`
	StartAt           time.Time         `gorm:"column:start_at;not null;index" json:"start_at"`
	EndAt             time.Time         `gorm:"column:end_at;not null" json:"end_at"`
	DurationMinutes   int               `gorm:"column:duration_minutes;not null" json:"duration_minutes"`
	TotalPrice        float64           `gorm:"column:total_price;not null" json:"total_price"`
	Status            AppointmentStatus `gorm:"column:status;size:50;not null;default:Pending" json:"status"`
	AppointmentType   string            `gorm:"column:appointment_type;size:50" json:"appointment_type"`
	PaymentMethod     string            `gorm:"column:payment_method;size:50" json:"payment_method"`
	Notes             string            `gorm:"column:notes;type:text" json:"notes"`

	Client          *Client  `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Service         *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Vehicle         *Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	ResponsibleUser *User    `gorm:"foreignKey:ResponsibleUserID" json:"responsible_user,omitempty"`
}
