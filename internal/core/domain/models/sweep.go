package models

// SweepSummary is the result of one full audit pass.
type SweepSummary struct {
	OrdersScanned     int `json:"orders_scanned"`
	NotificationsSent int `json:"notifications_sent"`
	ErrorsHandled     int `json:"errors_handled"`
}
