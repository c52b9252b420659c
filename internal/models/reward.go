package models

import "time"

// FreeRideToken is a single-use reward credential
type FreeRideToken struct {
	Token       string    `json:"token"`
	AccountID   string    `json:"account_id"`
	Reason      string    `json:"reason"`
	Description string    `json:"description"`
	Redeemed    bool      `json:"redeemed"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notification icon references, one per event category
const (
	IconTopUp    = "load_wallet_operation"
	IconTransfer = "transfer_operation"
	IconRide     = "ride_operation"
	IconFreeRide = "free_ride"
)

// Notification is a fire-and-forget message to an account
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	SenderID    string    `json:"sender_id"`
	Message     string    `json:"message"`
	Icon        string    `json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
}
