package models

import "time"

// RepairStatus enumerates the lifecycle of a repair order.
type RepairStatus string

const (
	StatusPending           RepairStatus = "pending"
	StatusInProgress        RepairStatus = "in_progress"
	StatusCompleted         RepairStatus = "completed"
	StatusWaitingForPayment RepairStatus = "waiting_for_payment"
	StatusPaid              RepairStatus = "paid"
)

// Valid reports whether s is one of the known repair statuses.
func (s RepairStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusWaitingForPayment, StatusPaid:
		return true
	}
	return false
}

// SlotCount is the number of physical repair bays in the shop.
const SlotCount = 2

// Repair is a repair order for one car.
//
// FirebaseID links the order to its remote document when it originated from
// the mobile app; it is empty for orders created locally. StartedAt and
// CompletedAt are stamped once, on first entry into the corresponding status.
// Notified tracks whether a completion notification has been delivered for
// the current completed/waiting_for_payment state.
type Repair struct {
	ID          string       `json:"id"`
	CarID       string       `json:"car_id"`
	FirebaseID  string       `json:"firebase_id,omitempty"`
	Status      RepairStatus `json:"status"`
	SlotNumber  *int         `json:"slot_number"`
	StartedAt   *time.Time   `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at"`
	TotalAmount float64      `json:"total_amount"`
	Notified    bool         `json:"notified"`
	CreatedAt   time.Time    `json:"created_at"`
}

type RepairItem struct {
	ID             string  `json:"id"`
	RepairID       string  `json:"repair_id"`
	InterventionID string  `json:"intervention_id"`
	Price          float64 `json:"price"`
	RemainingTime  int     `json:"remaining_time"`
	Status         string  `json:"status"`
}
