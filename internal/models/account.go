package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role tags decide which operations an account may take part in
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleDriver   Role = "driver"
	RoleStudent  Role = "student"
	RolePlatform Role = "moov"
	RoleSchool   Role = "school"
	RoleCarOwner Role = "car_owner"
)

// Account is any ledger participant: rider, driver, school, car owner or the platform itself
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"` // unique
	Role      Role      `json:"role"`
	RideCount int       `json:"ride_count"` // completed ride fares paid by this account
	CreatedAt time.Time `json:"created_at"`
}

// CanTransact reports whether the account is allowed to send or receive settlements
func (a Account) CanTransact() bool {
	return a.Role != RoleAdmin
}

// Wallet holds the current balance of exactly one account
type Wallet struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WalletUpdate lists the only wallet fields a settlement is allowed to change
type WalletUpdate struct {
	WalletID  string
	AccountID string
	Balance   decimal.Decimal
	UpdatedAt time.Time
}
