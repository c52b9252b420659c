package models

import "github.com/shopspring/decimal"

// OperationKind is the kind of money movement a ledger entry records
type OperationKind string

const (
	OperationTopUp    OperationKind = "load_wallet"
	OperationTransfer OperationKind = "transfer"
	OperationRideFare OperationKind = "ride_fare"
)

// Direction says which side of the ledger entry moved money
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
	DirectionBoth   Direction = "debit and credit"
)

// SettlementRequest is the validated intent handed to the settlement engine
type SettlementRequest struct {
	Kind          OperationKind
	Amount        decimal.Decimal
	SenderID      string // authenticated caller
	ReceiverEmail string // transfer receiver or ride driver
	SchoolLabel   string // ride fare only
	CarOwnerLabel string // ride fare only, empty means the configured default
}
