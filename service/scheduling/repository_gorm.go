package scheduling

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gerenciacar/gerenciacar-server/cmd/models"
)

// GormRepository persists appointments through gorm/postgres. Scheduling
// writes take a postgres advisory lock inside the transaction so the overlap
// check and the following insert/update behave as one atomic unit even under
// concurrent requests.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// One shop, one schedule: a single lock key serializes all scheduling writes.
const schedulingLockScope = "appointments"

func (r *GormRepository) InTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", schedulingLockScope).Error; err != nil {
			return err
		}
		return fn(ctx, &gormTx{db: tx})
	})
}

func (r *GormRepository) FindByID(ctx context.Context, id uint) (models.Appointment, error) {
	var appt models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Client").Preload("Service").Preload("Vehicle").
		First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Appointment{}, ErrNotFound
	}
	if err != nil {
		return models.Appointment{}, err
	}
	return appt, nil
}

func (r *GormRepository) ListByRange(ctx context.Context, startAt, endAt time.Time) ([]models.Appointment, error) {
	var rows []models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Client").Preload("Service").Preload("Vehicle").
		Where("start_at < ? AND end_at > ?", endAt, startAt).
		Order("start_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepository) ListAll(ctx context.Context, page, pageSize int) ([]models.Appointment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Appointment{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Appointment
	err := query.
		Preload("Client").Preload("Service").Preload("Vehicle").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Order("start_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

type gormTx struct {
	db *gorm.DB
}

// FindOverlapping applies the half-open interval predicate: [s1,e1) and
// [s2,e2) overlap iff s1 < e2 AND s2 < e1. Cancelled appointments free their
// slot and are excluded entirely.
func (t *gormTx) FindOverlapping(ctx context.Context, startAt, endAt time.Time, excludeID uint) ([]models.Appointment, error) {
	query := t.db.WithContext(ctx).
		Where("status <> ?", models.StatusCancelled).
		Where("start_at < ? AND end_at > ?", endAt, startAt)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var rows []models.Appointment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *gormTx) FindByID(ctx context.Context, id uint) (models.Appointment, error) {
	var appt models.Appointment
	err := t.db.WithContext(ctx).First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Appointment{}, ErrNotFound
	}
	if err != nil {
		return models.Appointment{}, err
	}
	return appt, nil
}

func (t *gormTx) Insert(ctx context.Context, appt *models.Appointment) error {
	return t.db.WithContext(ctx).Create(appt).Error
}

func (t *gormTx) Update(ctx context.Context, appt *models.Appointment) error {
	return t.db.WithContext(ctx).Save(appt).Error
}

// GormCatalog resolves catalog services for default duration and price.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) GetService(ctx context.Context, serviceID uint) (CatalogEntry, error) {
	var svc models.Service
	err := c.db.WithContext(ctx).First(&svc, serviceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CatalogEntry{}, ErrNotFound
	}
	if err != nil {
		return CatalogEntry{}, err
	}
	return CatalogEntry{DurationMinutes: svc.DurationMinutes, Price: svc.Price}, nil
}
