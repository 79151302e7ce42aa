package services

import "github.com/tsiory-dev/garagesync/internal/server/models"

// Status labels as the mobile app displays them. The two tables are fixed and
// deliberately non-bijective: the remote side cannot express paid or
// waiting_for_payment on pull, so those labels fall back to pending. Sync
// never aborts on an unrecognized label.

var statusToRemote = map[models.RepairStatus]string{
	models.StatusPending:           "En attente",
	models.StatusInProgress:        "En cours",
	models.StatusCompleted:         "Terminé",
	models.StatusWaitingForPayment: "En attente de paiement",
	models.StatusPaid:              "Payé",
}

var statusFromRemote = map[string]models.RepairStatus{
	"En attente": models.StatusPending,
	"En cours":   models.StatusInProgress,
	"Terminé":    models.StatusCompleted,
}

// MapStatusToRemote translates a local status into its remote label.
// Unknown statuses map to "En attente".
func MapStatusToRemote(status models.RepairStatus) string {
	if label, ok := statusToRemote[status]; ok {
		return label
	}
	return "En attente"
}

// MapStatusFromRemote translates a remote label into a local status.
// Unknown labels map to pending.
func MapStatusFromRemote(label string) models.RepairStatus {
	if status, ok := statusFromRemote[label]; ok {
		return status
	}
	return models.StatusPending
}
