package scheduling

import "github.com/gerenciacar/gerenciacar-server/cmd/models"

// UpdatePatch is a partial update: nil means the field is absent from the
// request and keeps its persisted value.
type UpdatePatch struct {
	ClientID          *uint                     `json:"client_id"`
	ServiceID         *uint                     `json:"service_id"`
	VehicleID         *uint                     `json:"vehicle_id"`
	ResponsibleUserID *uint                     `json:"responsible_user_id"`
	Date              *string                   `json:"date"`
	Time              *string                   `json:"time"`
	DurationMinutes   *int                      `json:"duration_minutes"`
	TotalPrice        *float64                  `json:"total_price"`
	Status            *models.AppointmentStatus `json:"status"`
	AppointmentType   *string                   `json:"appointment_type"`
	PaymentMethod     *string                   `json:"payment_method"`
	Notes             *string                   `json:"notes"`
}

func (p UpdatePatch) Empty() bool {
	return p.ClientID == nil &&
		p.ServiceID == nil &&
		p.VehicleID == nil &&
		p.ResponsibleUserID == nil &&
		p.Date == nil &&
		p.Time == nil &&
		p.DurationMinutes == nil &&
		p.TotalPrice == nil &&
		p.Status == nil &&
		p.AppointmentType == nil &&
		p.PaymentMethod == nil &&
		p.Notes == nil
}
