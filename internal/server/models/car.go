package models

type Car struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	LicensePlate string `json:"license_plate"`
	Model        string `json:"model"`
	Description  string `json:"description"`
}
