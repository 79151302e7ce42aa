package models

import "time"

// Payment records money received for a repair. FirebaseID is set when the
// payment was imported from the remote store and is the dedup key for the
// reconciler; TransactionID is the processor-side id and is unique either way.
type Payment struct {
	ID            string    `json:"id"`
	RepairID      string    `json:"repair_id"`
	FirebaseID    string    `json:"firebase_id,omitempty"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaymentDetail carries payment-method specific metadata, one row per payment.
type PaymentDetail struct {
	ID               string `json:"id"`
	PaymentID        string `json:"payment_id"`
	CardNumberMasked string `json:"card_number_masked,omitempty"`
	PhoneNumber      string `json:"phone_number,omitempty"`
	Provider         string `json:"provider,omitempty"`
}
