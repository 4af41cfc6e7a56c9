package scheduling

import (
	"context"
	"time"

	"github.com/gerenciacar/gerenciacar-server/cmd/models"
)

// CatalogEntry carries the defaults an appointment inherits when duration or
// price are not supplied explicitly.
type CatalogEntry struct {
	DurationMinutes int
	Price           float64
}

// Catalog resolves a catalog service id to its defaults. Returns ErrNotFound
// when the id does not exist.
type Catalog interface {
	GetService(ctx context.Context, serviceID uint) (CatalogEntry, error)
}

// Tx is the view of the appointment store inside one serialized transaction.
// The overlap check and the subsequent insert/update run against the same Tx
// so two concurrent bookings cannot both pass the check.
type Tx interface {
	FindOverlapping(ctx context.Context, startAt, endAt time.Time, excludeID uint) ([]models.Appointment, error)
	FindByID(ctx context.Context, id uint) (models.Appointment, error)
	Insert(ctx context.Context, appt *models.Appointment) error
	Update(ctx context.Context, appt *models.Appointment) error
}

type Repository interface {
	// InTransaction runs fn inside a transaction that serializes scheduling
	// writes against each other.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	FindByID(ctx context.Context, id uint) (models.Appointment, error)
	ListByRange(ctx context.Context, startAt, endAt time.Time) ([]models.Appointment, error)
	ListAll(ctx context.Context, page, pageSize int) ([]models.Appointment, int64, error)
}
