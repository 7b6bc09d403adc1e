package cache

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/dabifac/internal/models"
)

const insertBatchSize = 50

// DatabaseStore implements Store on the primary SQL database.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db, now: time.Now}
}

func (s *DatabaseStore) handle(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("cache: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return s.db.WithContext(ctx), nil
}

// Snapshots lists stored snapshots ordered by name.
func (s *DatabaseStore) Snapshots(ctx context.Context) ([]SnapshotInfo, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	var rows []models.Snapshot
	if err := db.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]SnapshotInfo, 0, len(rows))
	for _, row := range rows {
		out = append(out, snapshotInfo(row))
	}
	return out, nil
}

// Lookup returns the named snapshot.
func (s *DatabaseStore) Lookup(ctx context.Context, name string) (SnapshotInfo, bool, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return SnapshotInfo{}, false, err
	}

	var row models.Snapshot
	err = db.Take(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SnapshotInfo{}, false, nil
	}
	if err != nil {
		return SnapshotInfo{}, false, err
	}
	return snapshotInfo(row), true, nil
}

// PutSnapshot replaces the snapshot row and every entry inside one transaction, so
// readers observe either the previous content or the complete new one.
func (s *DatabaseStore) PutSnapshot(ctx context.Context, info SnapshotInfo, entries []Entry) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	if info.Name == "" {
		return errors.New("cache: snapshot name is required")
	}

	installedAt := info.InstalledAt
	if installedAt.IsZero() {
		installedAt = s.now().UTC()
	}

	rows := make([]models.CachedResource, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, resourceRow(info.Name, entry))
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_name = ?", info.Name).Delete(&models.CachedResource{}).Error; err != nil {
			return err
		}
		if err := tx.Where("name = ?", info.Name).Delete(&models.Snapshot{}).Error; err != nil {
			return err
		}

		snapshot := models.Snapshot{
			Name:           info.Name,
			Version:        info.Version,
			ManifestDigest: info.ManifestDigest,
			ResourceCount:  len(rows),
			InstalledAt:    installedAt,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, insertBatchSize).Error
	})
}

// DeleteSnapshot removes the snapshot and its entries.
func (s *DatabaseStore) DeleteSnapshot(ctx context.Context, name string) (bool, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return false, err
	}

	var existed bool
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_name = ?", name).Delete(&models.CachedResource{}).Error; err != nil {
			return err
		}
		result := tx.Where("name = ?", name).Delete(&models.Snapshot{})
		if result.Error != nil {
			return result.Error
		}
		existed = result.RowsAffected > 0
		return nil
	})
	return existed, err
}

// Match returns the stored entry for key within snapshot.
func (s *DatabaseStore) Match(ctx context.Context, snapshot, key string) (Entry, bool, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return Entry{}, false, err
	}

	var row models.CachedResource
	err = db.Take(&row, "snapshot_name = ? AND request_key = ?", snapshot, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	return Entry{
		Key:    row.RequestKey,
		Status: row.Status,
		Header: http.Header(row.Header.Data()),
		Body:   row.Body,
	}, true, nil
}

// Put inserts entry into snapshot when the key is absent. The first stored
// response for a key is kept.
func (s *DatabaseStore) Put(ctx context.Context, snapshot string, entry Entry) (bool, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return false, err
	}

	var written bool
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Snapshot{}).Where("name = ?", snapshot).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrSnapshotNotFound
		}

		row := resourceRow(snapshot, entry)
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			return result.Error
		}
		written = result.RowsAffected > 0
		return nil
	})
	return written, err
}

// PruneOrphans deletes entries whose snapshot row no longer exists.
func (s *DatabaseStore) PruneOrphans(ctx context.Context) (int64, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}

	names := db.Model(&models.Snapshot{}).Select("name")
	result := db.Where("snapshot_name NOT IN (?)", names).Delete(&models.CachedResource{})
	return result.RowsAffected, result.Error
}

func snapshotInfo(row models.Snapshot) SnapshotInfo {
	return SnapshotInfo{
		Name:           row.Name,
		Version:        row.Version,
		ManifestDigest: row.ManifestDigest,
		ResourceCount:  row.ResourceCount,
		InstalledAt:    row.InstalledAt,
	}
}

func resourceRow(snapshot string, entry Entry) models.CachedResource {
	header := map[string][]string{}
	for name, values := range entry.Header {
		header[name] = append([]string(nil), values...)
	}
	return models.CachedResource{
		SnapshotName: snapshot,
		RequestKey:   entry.Key,
		Status:       entry.Status,
		Header:       datatypes.NewJSONType(header),
		Body:         entry.Body,
	}
}
