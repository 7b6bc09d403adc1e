package cache

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrSnapshotNotFound is returned when writing into a snapshot that is not stored.
var ErrSnapshotNotFound = errors.New("cache: snapshot not found")

// Entry is one stored response keyed by its request key.
type Entry struct {
	Key    string
	Status int
	Header http.Header
	Body   []byte
}

// SnapshotInfo describes a stored snapshot.
type SnapshotInfo struct {
	Name           string    `json:"name"`
	Version        string    `json:"version"`
	ManifestDigest string    `json:"manifest_digest"`
	ResourceCount  int       `json:"resource_count"`
	InstalledAt    time.Time `json:"installed_at"`
}

// Store is the blob substrate holding named asset snapshots.
type Store interface {
	// Snapshots lists every stored snapshot ordered by name.
	Snapshots(ctx context.Context) ([]SnapshotInfo, error)
	// Lookup returns a single snapshot by name.
	Lookup(ctx context.Context, name string) (SnapshotInfo, bool, error)
	// PutSnapshot atomically replaces the snapshot and all of its entries.
	PutSnapshot(ctx context.Context, info SnapshotInfo, entries []Entry) error
	// DeleteSnapshot removes a snapshot and its entries, reporting whether it existed.
	DeleteSnapshot(ctx context.Context, name string) (bool, error)
	// Match returns the entry stored under key in the named snapshot.
	Match(ctx context.Context, snapshot, key string) (Entry, bool, error)
	// Put stores entry unless the key is already present, reporting whether it was written.
	Put(ctx context.Context, snapshot string, entry Entry) (bool, error)
}
