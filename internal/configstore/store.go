package configstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/dabifac/internal/models"
	"github.com/charlesng35/dabifac/pkg/logger"
	"github.com/charlesng35/dabifac/pkg/metrics"
	"github.com/charlesng35/dabifac/pkg/validator"
)

const (
	DefaultName           = "DabifacCombinationDB"
	DefaultListLimit      = 15
	DefaultTitleMaxLength = 10

	// maxTitleColumn is the width of the title column.
	maxTitleColumn = 64
)

// Options configures a Store.
type Options struct {
	Name           string
	ListLimit      int
	TitleMaxLength int
}

func (o Options) withDefaults() Options {
	o.Name = strings.TrimSpace(o.Name)
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.ListLimit <= 0 {
		o.ListLimit = DefaultListLimit
	}
	if o.TitleMaxLength <= 0 {
		o.TitleMaxLength = DefaultTitleMaxLength
	}
	if o.TitleMaxLength > maxTitleColumn {
		o.TitleMaxLength = maxTitleColumn
	}
	return o
}

// Store persists named configurations. Records are immutable once saved.
type Store struct {
	db   *gorm.DB
	opts Options
	now  func() time.Time
	log  *zap.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for savedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open verifies the database is reachable and ensures the configs collection exists.
func Open(ctx context.Context, db *gorm.DB, opts Options, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrStorageUnavailable.WithInternal(errors.New("database handle is nil"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, ErrStorageUnavailable.WithInternal(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, ErrStorageUnavailable.WithInternal(err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&models.ConfigRecord{}); err != nil {
		return nil, ErrStorageUnavailable.WithInternal(fmt.Errorf("migrate configs: %w", err))
	}

	store := &Store{
		db:   db,
		opts: opts.withDefaults(),
		now:  time.Now,
		log:  logger.WithModule("configstore"),
	}
	for _, opt := range options {
		opt(store)
	}
	store.log.Debug("configuration store opened", zap.String("name", store.opts.Name))
	return store, nil
}

// Options returns the effective options.
func (s *Store) Options() Options {
	return s.opts
}

// List returns up to ListLimit records, newest first. Equal timestamps order by id.
func (s *Store) List(ctx context.Context) (records []models.ConfigRecord, err error) {
	defer observe("list", &err)

	err = s.db.WithContext(ctx).
		Order("saved_at DESC").
		Order("id DESC").
		Limit(s.opts.ListLimit).
		Find(&records).Error
	if err != nil {
		return nil, ErrReadFailed.WithInternal(err)
	}
	return records, nil
}

// Save stores a deep copy of data under the trimmed title and returns the new id.
func (s *Store) Save(ctx context.Context, title string, data models.ConfigData) (id uint64, err error) {
	defer observe("save", &err)

	title, err = s.ValidateTitle(title)
	if err != nil {
		return 0, err
	}

	record := models.ConfigRecord{
		Title:      title,
		SavedAt:    s.now().UTC(),
		ConfigData: datatypes.NewJSONType(data.Clone()),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return 0, ErrWriteFailed.WithInternal(err)
	}

	s.log.Debug("configuration saved", zap.Uint64("id", record.ID), zap.String("title", record.Title))
	return record.ID, nil
}

// ValidateTitle trims title and checks its length in characters.
func (s *Store) ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	tag := fmt.Sprintf("notblank,max=%d", s.opts.TitleMaxLength)
	if err := validator.ValidateVar("title", title, tag); err != nil {
		return "", ErrInvalidTitle.
			WithMessage(fmt.Sprintf("Title must be between 1 and %d characters", s.opts.TitleMaxLength)).
			WithInternal(err)
	}
	return title, nil
}

// Get returns the record with id. found is false when no such record exists.
func (s *Store) Get(ctx context.Context, id uint64) (record models.ConfigRecord, found bool, err error) {
	defer observe("get", &err)

	err = s.db.WithContext(ctx).Take(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ConfigRecord{}, false, nil
	}
	if err != nil {
		return models.ConfigRecord{}, false, ErrReadFailed.WithInternal(err)
	}
	return record, true, nil
}

// Delete removes the record with id. Deleting a missing id succeeds.
func (s *Store) Delete(ctx context.Context, id uint64) (err error) {
	defer observe("delete", &err)

	if err = s.db.WithContext(ctx).Delete(&models.ConfigRecord{}, "id = ?", id).Error; err != nil {
		return ErrDeleteFailed.WithInternal(err)
	}
	return nil
}

func observe(op string, err *error) {
	metrics.CombinationOps.WithLabelValues(op, metrics.Result(*err)).Inc()
}
