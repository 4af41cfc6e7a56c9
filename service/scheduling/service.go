package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gerenciacar/gerenciacar-server/cmd/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Service owns the appointment lifecycle: validation, derived time-window
// computation, overlap detection and status transitions. The repository and
// catalog are injected at construction time.
type Service struct {
	repo    Repository
	catalog Catalog
}

func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

type CreateInput struct {
	ClientID          uint
	ServiceID         uint
	Date              string
	Time              string
	VehicleID         *uint
	ResponsibleUserID *uint
	DurationMinutes   *int
	TotalPrice        *float64
	Status            models.AppointmentStatus
	AppointmentType   string
	PaymentMethod     string
	Notes             string
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor Actor) (models.Appointment, error) {
	if !Allowed(actor, OpCreate) {
		return models.Appointment{}, ErrForbidden
	}
	if in.ClientID == 0 {
		return models.Appointment{}, validationError("client_id is required")
	}
	if in.ServiceID == 0 {
		return models.Appointment{}, validationError("service_id is required")
	}
	if in.Date == "" {
		return models.Appointment{}, validationError("date is required")
	}
	if in.Time == "" {
		return models.Appointment{}, validationError("time is required")
	}

	duration, price, err := s.resolveDefaults(ctx, in.ServiceID, in.DurationMinutes, in.TotalPrice)
	if err != nil {
		return models.Appointment{}, err
	}
	if duration <= 0 {
		return models.Appointment{}, validationError("duration_minutes must be greater than zero")
	}
	if price < 0 {
		return models.Appointment{}, validationError("total_price must not be negative")
	}

	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return models.Appointment{}, validationError(fmt.Sprintf("invalid status %q", status))
	}

	startAt, err := combineDateTime(in.Date, in.Time)
	if err != nil {
		return models.Appointment{}, err
	}
	endAt := startAt.Add(time.Duration(duration) * time.Minute)

	appt := models.Appointment{
		ClientID:          in.ClientID,
		ServiceID:         in.ServiceID,
		VehicleID:         in.VehicleID,
		ResponsibleUserID: in.ResponsibleUserID,
		StartAt:           startAt,
		EndAt:             endAt,
		DurationMinutes:   duration,
		TotalPrice:        price,
		Status:            status,
		AppointmentType:   in.AppointmentType,
		PaymentMethod:     in.PaymentMethod,
		Notes:             in.Notes,
	}

	err = s.repo.InTransaction(ctx, func(ctx context.Context, tx Tx) error {
		overlapping, err := tx.FindOverlapping(ctx, startAt, endAt, 0)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return ErrConflict
		}
		return tx.Insert(ctx, &appt)
	})
	if err != nil {
		return models.Appointment{}, err
	}
	return appt, nil
}

func (s *Service) Update(ctx context.Context, id uint, patch UpdatePatch, actor Actor) (models.Appointment, error) {
	if !Allowed(actor, OpUpdate) {
		return models.Appointment{}, ErrForbidden
	}
	if patch.Empty() {
		return models.Appointment{}, validationError("nothing to update")
	}

	var updated models.Appointment
	err := s.repo.InTransaction(ctx, func(ctx context.Context, tx Tx) error {
		current, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}

		merged := current
		if patch.ClientID != nil {
			if *patch.ClientID == 0 {
				return validationError("client_id is required")
			}
			merged.ClientID = *patch.ClientID
		}
		if patch.VehicleID != nil {
			merged.VehicleID = patch.VehicleID
		}
		if patch.ResponsibleUserID != nil {
			merged.ResponsibleUserID = patch.ResponsibleUserID
		}
		if patch.AppointmentType != nil {
			merged.AppointmentType = *patch.AppointmentType
		}
		if patch.PaymentMethod != nil {
			merged.PaymentMethod = *patch.PaymentMethod
		}
		if patch.Notes != nil {
			merged.Notes = *patch.Notes
		}

		serviceChanged := patch.ServiceID != nil && *patch.ServiceID != current.ServiceID
		if patch.ServiceID != nil {
			if *patch.ServiceID == 0 {
				return validationError("service_id is required")
			}
			merged.ServiceID = *patch.ServiceID
		}
		if serviceChanged {
			// Fields not explicitly overridden in the patch fall back to the
			// new service's defaults, exactly as in creation.
			duration, price, err := s.resolveDefaults(ctx, merged.ServiceID, patch.DurationMinutes, patch.TotalPrice)
			if err != nil {
				return err
			}
			merged.DurationMinutes = duration
			merged.TotalPrice = price
		} else {
			if patch.DurationMinutes != nil {
				merged.DurationMinutes = *patch.DurationMinutes
			}
			if patch.TotalPrice != nil {
				merged.TotalPrice = *patch.TotalPrice
			}
		}
		if merged.DurationMinutes <= 0 {
			return validationError("duration_minutes must be greater than zero")
		}
		if merged.TotalPrice < 0 {
			return validationError("total_price must not be negative")
		}

		if patch.Status != nil {
			if !current.Status.CanTransitionTo(*patch.Status) {
				return validationError(fmt.Sprintf("cannot transition from %q to %q", current.Status, *patch.Status))
			}
			merged.Status = *patch.Status
		}

		// Recompute the interval whenever date, time or duration participates
		// in the patch; unspecified components fall back to the persisted
		// start. Start and end are only ever written together.
		date := current.StartAt.UTC().Format(dateLayout)
		clock := current.StartAt.UTC().Format(timeLayout)
		if patch.Date != nil {
			date = *patch.Date
		}
		if patch.Time != nil {
			clock = *patch.Time
		}
		startAt, err := combineDateTime(date, clock)
		if err != nil {
			return err
		}
		merged.StartAt = startAt
		merged.EndAt = startAt.Add(time.Duration(merged.DurationMinutes) * time.Minute)

		intervalChanged := !merged.StartAt.Equal(current.StartAt) || !merged.EndAt.Equal(current.EndAt)
		if intervalChanged && merged.Status != models.StatusCancelled {
			overlapping, err := tx.FindOverlapping(ctx, merged.StartAt, merged.EndAt, current.ID)
			if err != nil {
				return err
			}
			if len(overlapping) > 0 {
				return ErrConflict
			}
		}

		if err := tx.Update(ctx, &merged); err != nil {
			return err
		}
		updated = merged
		return nil
	})
	if err != nil {
		return models.Appointment{}, err
	}
	return updated, nil
}

// Cancel transitions an appointment to Cancelled. Appointments are never
// physically deleted; the record is retained with its history.
func (s *Service) Cancel(ctx context.Context, id uint, actor Actor) (models.Appointment, error) {
	if !Allowed(actor, OpCancel) {
		return models.Appointment{}, ErrForbidden
	}

	var cancelled models.Appointment
	err := s.repo.InTransaction(ctx, func(ctx context.Context, tx Tx) error {
		current, err := tx.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == models.StatusCancelled {
			cancelled = current
			return nil
		}
		if !current.Status.CanTransitionTo(models.StatusCancelled) {
			return validationError(fmt.Sprintf("cannot cancel a %q appointment", current.Status))
		}
		current.Status = models.StatusCancelled
		if err := tx.Update(ctx, &current); err != nil {
			return err
		}
		cancelled = current
		return nil
	})
	if err != nil {
		return models.Appointment{}, err
	}
	return cancelled, nil
}

func (s *Service) GetByID(ctx context.Context, id uint, actor Actor) (models.Appointment, error) {
	if !Allowed(actor, OpRead) {
		return models.Appointment{}, ErrForbidden
	}
	return s.repo.FindByID(ctx, id)
}

// ListByDate returns the appointments of one calendar day ordered by start
// time.
func (s *Service) ListByDate(ctx context.Context, date string, actor Actor) ([]models.Appointment, error) {
	if !Allowed(actor, OpRead) {
		return nil, ErrForbidden
	}
	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return nil, validationError("date must be in YYYY-MM-DD format")
	}
	return s.repo.ListByRange(ctx, day, day.Add(24*time.Hour))
}

func (s *Service) ListByRange(ctx context.Context, startAt, endAt time.Time, actor Actor) ([]models.Appointment, error) {
	if !Allowed(actor, OpRead) {
		return nil, ErrForbidden
	}
	if startAt.IsZero() || endAt.IsZero() {
		return nil, validationError("start and end are required")
	}
	if !endAt.After(startAt) {
		return nil, validationError("end must be after start")
	}
	return s.repo.ListByRange(ctx, startAt.UTC(), endAt.UTC())
}

func (s *Service) ListAll(ctx context.Context, page, pageSize int, actor Actor) ([]models.Appointment, int64, error) {
	if !Allowed(actor, OpRead) {
		return nil, 0, ErrForbidden
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}
	return s.repo.ListAll(ctx, page, pageSize)
}

// resolveDefaults fills missing duration/price from the catalog. A missing
// catalog entry is an input error, not an internal one: the caller referenced
// a service that does not exist.
func (s *Service) resolveDefaults(ctx context.Context, serviceID uint, duration *int, price *float64) (int, float64, error) {
	if duration != nil && price != nil {
		return *duration, *price, nil
	}
	entry, err := s.catalog.GetService(ctx, serviceID)
	if errors.Is(err, ErrNotFound) {
		return 0, 0, validationError("service not found")
	}
	if err != nil {
		return 0, 0, err
	}
	d := entry.DurationMinutes
	if duration != nil {
		d = *duration
	}
	p := entry.Price
	if price != nil {
		p = *price
	}
	return d, p, nil
}

func combineDateTime(date, clock string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, validationError("date must be in YYYY-MM-DD format")
	}
	t, err := time.Parse(timeLayout, clock)
	if err != nil {
		return time.Time{}, validationError("time must be in HH:MM format")
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}
