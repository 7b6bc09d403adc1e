package configstore

import (
	"net/http"

	apperrors "github.com/charlesng35/dabifac/pkg/errors"
)

var (
	ErrStorageUnavailable = apperrors.New("CONFIG_STORAGE_UNAVAILABLE", "Configuration storage unavailable", http.StatusServiceUnavailable)
	ErrWriteFailed        = apperrors.New("CONFIG_WRITE_FAILED", "Failed to save configuration", http.StatusInternalServerError)
	ErrReadFailed         = apperrors.New("CONFIG_READ_FAILED", "Failed to read configurations", http.StatusInternalServerError)
	ErrDeleteFailed       = apperrors.New("CONFIG_DELETE_FAILED", "Failed to delete configuration", http.StatusInternalServerError)
	ErrNotFound           = apperrors.New("CONFIG_NOT_FOUND", "Configuration not found", http.StatusNotFound)
	// ErrInvalidTitle is returned before storage is touched.
	ErrInvalidTitle = apperrors.New("INVALID_TITLE", "Title must be between 1 and 10 characters", http.StatusBadRequest)
)
