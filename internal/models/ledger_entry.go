package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the immutable audit record of one settlement
type LedgerEntry struct {
	ID        string          `json:"id"`
	Kind      OperationKind   `json:"type_of_operation"`
	Direction Direction       `json:"type_of_transaction"`
	Detail    string          `json:"transaction_detail"`
	Amount    decimal.Decimal `json:"cost_of_transaction"` // gross amount

	SenderID              string          `json:"sender_id,omitempty"`
	SenderWalletID        string          `json:"sender_wallet_id,omitempty"`
	SenderBalanceBefore   decimal.Decimal `json:"sender_amount_before_transaction"`
	SenderBalanceAfter    decimal.Decimal `json:"sender_amount_after_transaction"`
	ReceiverID            string          `json:"receiver_id"`
	ReceiverWalletID      string          `json:"receiver_wallet_id"`
	ReceiverBalanceBefore decimal.Decimal `json:"receiver_amount_before_transaction"`
	ReceiverBalanceAfter  decimal.Decimal `json:"receiver_amount_after_transaction"`

	PlatformID       string `json:"platform_id,omitempty"` // fee or residual collector, empty for top-ups
	PlatformWalletID string `json:"platform_wallet_id,omitempty"`

	ProcessingFee decimal.Decimal `json:"paystack_deduction"` // top-up gateway charge
	PlatformFee   decimal.Decimal `json:"platform_fee"`       // transfer charge
	Split         *FareSplit      `json:"split,omitempty"`    // ride fare only

	CreatedAt time.Time `json:"transaction_date"`
}

// FareSplit is how a ride fare was shared out
type FareSplit struct {
	SchoolID         string          `json:"school_id"`
	SchoolWalletID   string          `json:"school_wallet_id"`
	CarOwnerID       string          `json:"car_owner_id"`
	CarOwnerWalletID string          `json:"car_owner_wallet_id"`
	DriverAmount     decimal.Decimal `json:"driver_amount"`
	SchoolAmount     decimal.Decimal `json:"school_amount"`
	CarOwnerAmount   decimal.Decimal `json:"car_owner_amount"`
	PlatformAmount   decimal.Decimal `json:"platform_amount"` // residual, may be negative
}

// Total adds the four shares back together
func (s FareSplit) Total() decimal.Decimal {
	return s.DriverAmount.Add(s.SchoolAmount).Add(s.CarOwnerAmount).Add(s.PlatformAmount)
}

// Involves reports whether the account sent, received or was paid a share in the entry
func (e LedgerEntry) Involves(accountID string) bool {
	if accountID == "" {
		return false
	}
	switch accountID {
	case e.SenderID, e.ReceiverID, e.PlatformID:
		return true
	}
	return e.Split != nil && (e.Split.SchoolID == accountID || e.Split.CarOwnerID == accountID)
}
