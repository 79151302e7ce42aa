package models

// Intervention is a catalog entry: a billable type of work with a fixed
// price and an estimated duration in seconds. Name is the match key used
// when reconciling remote repair documents.
type Intervention struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"`
}
