package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tsiory-dev/garagesync/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the sentinel error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrCapacityExceeded), errors.Is(err, common.ErrSlotOccupied):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrSyncInProgress):
		status = http.StatusConflict
	case errors.Is(err, common.ErrConfig), errors.Is(err, common.ErrAuth):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]string{"message": err.Error()})
}
