package dto

// ResetHistoryRequest empties one history table. Confirm must be true.
type ResetHistoryRequest struct {
	Table   string `json:"table" validate:"required,oneof=storico assenze"`
	Confirm bool   `json:"confirm"`
}

// DeleteHistoryDateResponse reports rows removed for a date.
type DeleteHistoryDateResponse struct {
	Date    string `json:"date"`
	Removed int64  `json:"removed"`
}
