// Package models defines the persistent entities of the repair shop.
package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	FirebaseUID  string    `json:"firebase_uid,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
