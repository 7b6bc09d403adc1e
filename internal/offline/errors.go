package offline

import (
	"net/http"

	apperrors "github.com/charlesng35/dabifac/pkg/errors"
)

var (
	// ErrFetchFailed reports a network failure, or a non-success status during install.
	ErrFetchFailed = apperrors.New("ASSET_FETCH_FAILED", "Failed to fetch asset from origin", http.StatusBadGateway)
	// ErrStorageUnavailable reports that the snapshot store could not be read or written.
	ErrStorageUnavailable = apperrors.New("ASSET_STORAGE_UNAVAILABLE", "Asset cache storage unavailable", http.StatusServiceUnavailable)
	// ErrNotInstalled is returned when activating a version that has no complete snapshot.
	ErrNotInstalled = apperrors.New("SNAPSHOT_NOT_INSTALLED", "Snapshot for the current version is not installed", http.StatusConflict)
	// ErrInvalidManifest reports an unusable worker URL or manifest entry.
	ErrInvalidManifest = apperrors.New("INVALID_MANIFEST", "Asset manifest is invalid", http.StatusInternalServerError)
)
