package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tsiory-dev/garagesync/internal/server/models"
)

func TestMapStatusToRemote(t *testing.T) {
	tests := []struct {
		status models.RepairStatus
		want   string
	}{
		{models.StatusPending, "En attente"},
		{models.StatusInProgress, "En cours"},
		{models.StatusCompleted, "Terminé"},
		{models.StatusWaitingForPayment, "En attente de paiement"},
		{models.StatusPaid, "Payé"},
		{models.RepairStatus("garbage"), "En attente"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapStatusToRemote(tt.status), string(tt.status))
	}
}

func TestMapStatusFromRemote(t *testing.T) {
	tests := []struct {
		label string
		want  models.RepairStatus
	}{
		{"En attente", models.StatusPending},
		{"En cours", models.StatusInProgress},
		{"Terminé", models.StatusCompleted},
		{"", models.StatusPending},
		{"garbage", models.StatusPending},
		// payment-side labels are push-only and fall back on pull
		{"En attente de paiement", models.StatusPending},
		{"Payé", models.StatusPending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapStatusFromRemote(tt.label), tt.label)
	}
}
