package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/campusride/wallet-ledger/internal/interfaces"
	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Settle dispatches a validated request to the matching settlement
func (e *Engine) Settle(ctx context.Context, req models.SettlementRequest) (*Settlement, error) {
	switch req.Kind {
	case models.OperationTopUp:
		return e.TopUp(ctx, req.SenderID, req.Amount)
	case models.OperationTransfer:
		return e.Transfer(ctx, req.SenderID, req.ReceiverEmail, req.Amount)
	case models.OperationRideFare:
		return e.RideFare(ctx, req.SenderID, req.ReceiverEmail, req.SchoolLabel, req.CarOwnerLabel, req.Amount)
	}
	return nil, newError(KindInvalidRequest, "", "transaction denied")
}

func checkAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return newError(KindInvalidAmount, "", "cost of transaction cannot be a negative value")
	}
	return nil
}

// TopUp credits an account with amount less the gateway processing fee
func (e *Engine) TopUp(ctx context.Context, accountID string, amount decimal.Decimal) (*Settlement, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	account, err := e.loadParty(func() (models.Account, error) { return e.loadAccount(ctx, accountID) })
	if err != nil {
		return nil, err
	}
	platform, err := e.platformAccount(ctx)
	if err != nil {
		return nil, err
	}

	fee := e.cfg.TopUpFees.ProcessingFee(amount)
	net := amount.Sub(fee)

	var entry models.LedgerEntry
	err = e.settle(ctx, "top_up", []string{account.ID}, func(tx interfaces.LedgerTx, ws *walletSet) error {
		wallet, err := ws.get(account.ID)
		if err != nil {
			return err
		}
		before := wallet.Balance
		if err := ws.credit(account.ID, net); err != nil {
			return err
		}

		now := e.now()
		entry = models.LedgerEntry{
			ID:                    uuid.NewString(),
			Kind:                  models.OperationTopUp,
			Direction:             models.DirectionCredit,
			Detail:                fmt.Sprintf("%s's wallet has been credited with %s with a paystack deduction of %s", account.Name, net, fee),
			Amount:                amount,
			ReceiverID:            account.ID,
			ReceiverWalletID:      wallet.ID,
			ReceiverBalanceBefore: before,
			ReceiverBalanceAfter:  ws.balance(account.ID),
			ProcessingFee:         fee,
			CreatedAt:             now,
		}
		if err := ws.persist(ctx, tx, now); err != nil {
			return err
		}
		return tx.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	e.notify(ctx, account.ID, platform.ID, models.IconTopUp,
		"Your wallet has been credited with N%s with a transaction charge of N%s", net, fee)
	e.publish(ctx, entry, fee)
	return &Settlement{Entry: entry}, nil
}

// Transfer moves amount from sender to the receiver and charges the sender the
// transfer rate on top, paid to the platform account.
//
// Inside the atomic unit the order is fixed: the sender debit of amount+fee is
// computed and validated first, then the receiver and platform credits are applied,
// then all wallets and the entry are written together. After-balances are read
// once every change is applied, so an account holding two roles still reconciles.
func (e *Engine) Transfer(ctx context.Context, senderID, receiverEmail string, amount decimal.Decimal) (*Settlement, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	sender, err := e.loadParty(func() (models.Account, error) { return e.loadAccount(ctx, senderID) })
	if err != nil {
		return nil, err
	}
	receiver, err := e.loadParty(func() (models.Account, error) { return e.loadAccountByEmail(ctx, normalizeEmail(receiverEmail)) })
	if err != nil {
		return nil, err
	}
	if sender.ID == receiver.ID {
		return nil, newError(KindSelfTransferDenied, sender.ID, "unauthorized, a user cannot transfer to themselves")
	}
	policy, err := e.loadPolicy(ctx, models.PolicyTransfer)
	if err != nil {
		return nil, err
	}
	platform, err := e.platformAccount(ctx)
	if err != nil {
		return nil, err
	}

	fee := policy.Rate.Mul(amount)

	var entry models.LedgerEntry
	parties := []string{sender.ID, receiver.ID, platform.ID}
	err = e.settle(ctx, "transfer", parties, func(tx interfaces.LedgerTx, ws *walletSet) error {
		senderWallet, err := ws.get(sender.ID)
		if err != nil {
			return err
		}
		receiverWallet, err := ws.get(receiver.ID)
		if err != nil {
			return err
		}
		platformWallet, err := ws.get(platform.ID)
		if err != nil {
			return err
		}
		senderBefore := senderWallet.Balance
		receiverBefore := receiverWallet.Balance

		// raw amount first, then again once the fee is part of the debit
		if senderBefore.Sub(amount).IsNegative() {
			return insufficient(sender.ID, senderBefore, amount)
		}
		if err := ws.debit(sender.ID, amount.Add(fee)); err != nil {
			return insufficient(sender.ID, senderBefore, amount.Add(fee))
		}
		if err := ws.credit(receiver.ID, amount); err != nil {
			return err
		}
		if err := ws.credit(platform.ID, fee); err != nil {
			return err
		}

		now := e.now()
		entry = models.LedgerEntry{
			ID:                    uuid.NewString(),
			Kind:                  models.OperationTransfer,
			Direction:             models.DirectionBoth,
			Detail:                fmt.Sprintf("%s transfered N%s to %s with a transaction charge of %s", sender.Email, amount, receiver.Email, fee),
			Amount:                amount,
			SenderID:              sender.ID,
			SenderWalletID:        senderWallet.ID,
			SenderBalanceBefore:   senderBefore,
			SenderBalanceAfter:    ws.balance(sender.ID),
			ReceiverID:            receiver.ID,
			ReceiverWalletID:      receiverWallet.ID,
			ReceiverBalanceBefore: receiverBefore,
			ReceiverBalanceAfter:  ws.balance(receiver.ID),
			PlatformID:            platform.ID,
			PlatformWalletID:      platformWallet.ID,
			PlatformFee:           fee,
			CreatedAt:             now,
		}
		if err := ws.persist(ctx, tx, now); err != nil {
			return err
		}
		return tx.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	e.notify(ctx, sender.ID, platform.ID, models.IconTransfer,
		"Your wallet has been debited with N%s, with a transaction charge of N%s by MOOV", amount, fee)
	e.notify(ctx, receiver.ID, platform.ID, models.IconTransfer,
		"Your wallet has been credited with N%s by %s", amount, sender.Name)
	e.publish(ctx, entry, fee)
	return &Settlement{Entry: entry}, nil
}

// RideFare charges the rider the full fare and shares it between the driver,
// the school, the car owner and the platform. A qualifying ride may earn the
// rider a free-ride token, issued after the money has settled.
func (e *Engine) RideFare(ctx context.Context, riderID, driverEmail, schoolLabel, carOwnerLabel string, amount decimal.Decimal) (*Settlement, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	rider, err := e.loadParty(func() (models.Account, error) { return e.loadAccount(ctx, riderID) })
	if err != nil {
		return nil, err
	}
	driver, err := e.loadParty(func() (models.Account, error) { return e.loadAccountByEmail(ctx, normalizeEmail(driverEmail)) })
	if err != nil {
		return nil, err
	}

	schoolLabel = normalizeEmail(schoolLabel)
	if schoolLabel == "" {
		return nil, newError(KindNotFound, "", "school_email field is compulsory for ride fare")
	}
	school, err := e.loadAccountByEmail(ctx, schoolLabel)
	if err != nil {
		return nil, err
	}
	carOwnerLabel = normalizeEmail(carOwnerLabel)
	if carOwnerLabel == "" {
		carOwnerLabel = normalizeEmail(e.cfg.DefaultCarOwnerEmail)
	}
	carOwner, err := e.loadAccountByEmail(ctx, carOwnerLabel)
	if err != nil {
		return nil, err
	}
	platform, err := e.platformAccount(ctx)
	if err != nil {
		return nil, err
	}

	driverRate, err := e.loadPolicy(ctx, models.PolicyDriver)
	if err != nil {
		return nil, err
	}
	schoolRate, err := e.loadPolicy(ctx, schoolLabel)
	if err != nil {
		return nil, err
	}
	carOwnerRate, err := e.loadPolicy(ctx, carOwnerLabel)
	if err != nil {
		return nil, err
	}

	driverAmt, schoolAmt, carOwnerAmt, platformAmt := computeSplit(amount, driverRate.Rate, schoolRate.Rate, carOwnerRate.Rate)
	if platformAmt.IsNegative() {
		e.log.WithFields(logrus.Fields{
			"operation":       "ride_fare",
			"school":          schoolLabel,
			"car_owner":       carOwnerLabel,
			"platform_amount": platformAmt.String(),
		}).Warn("fee split rates add up to more than 1, platform residual is negative")
	}

	var entry models.LedgerEntry
	var rideCount int
	parties := []string{rider.ID, driver.ID, school.ID, carOwner.ID, platform.ID}
	err = e.settle(ctx, "ride_fare", parties, func(tx interfaces.LedgerTx, ws *walletSet) error {
		riderWallet, err := ws.get(rider.ID)
		if err != nil {
			return err
		}
		driverWallet, err := ws.get(driver.ID)
		if err != nil {
			return err
		}
		schoolWallet, err := ws.get(school.ID)
		if err != nil {
			return err
		}
		carOwnerWallet, err := ws.get(carOwner.ID)
		if err != nil {
			return err
		}
		platformWallet, err := ws.get(platform.ID)
		if err != nil {
			return err
		}
		riderBefore := riderWallet.Balance
		driverBefore := driverWallet.Balance

		if err := ws.debit(rider.ID, amount); err != nil {
			return err
		}
		for _, share := range []struct {
			accountID string
			amount    decimal.Decimal
		}{
			{driver.ID, driverAmt},
			{school.ID, schoolAmt},
			{carOwner.ID, carOwnerAmt},
			{platform.ID, platformAmt},
		} {
			if err := ws.credit(share.accountID, share.amount); err != nil {
				return err
			}
		}

		now := e.now()
		entry = models.LedgerEntry{
			ID:                    uuid.NewString(),
			Kind:                  models.OperationRideFare,
			Direction:             models.DirectionBoth,
			Detail:                fmt.Sprintf("%s paid N%s ride fare to %s", rider.Email, amount, driver.Email),
			Amount:                amount,
			SenderID:              rider.ID,
			SenderWalletID:        riderWallet.ID,
			SenderBalanceBefore:   riderBefore,
			SenderBalanceAfter:    ws.balance(rider.ID),
			ReceiverID:            driver.ID,
			ReceiverWalletID:      driverWallet.ID,
			ReceiverBalanceBefore: driverBefore,
			ReceiverBalanceAfter:  ws.balance(driver.ID),
			PlatformID:            platform.ID,
			PlatformWalletID:      platformWallet.ID,
			Split: &models.FareSplit{
				SchoolID:         school.ID,
				SchoolWalletID:   schoolWallet.ID,
				CarOwnerID:       carOwner.ID,
				CarOwnerWalletID: carOwnerWallet.ID,
				DriverAmount:     driverAmt,
				SchoolAmount:     schoolAmt,
				CarOwnerAmount:   carOwnerAmt,
				PlatformAmount:   platformAmt,
			},
			CreatedAt: now,
		}
		if err := ws.persist(ctx, tx, now); err != nil {
			return err
		}
		if err := tx.SaveEntry(ctx, entry); err != nil {
			return err
		}
		rideCount, err = tx.IncrementRideCount(ctx, rider.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.notify(ctx, rider.ID, platform.ID, models.IconRide,
		"Your wallet has been debited with N%s for your ride fare with %s", amount, driver.Name)
	e.notify(ctx, driver.ID, platform.ID, models.IconRide,
		"Your wallet has been credited with N%s by %s", driverAmt, rider.Name)
	e.publish(ctx, entry, decimal.Zero)

	result := &Settlement{Entry: entry}
	rider.RideCount = rideCount
	if token := e.issueReward(ctx, rider, rideCount); token != nil {
		result.FreeRide = token
		e.notify(ctx, rider.ID, platform.ID, models.IconFreeRide,
			"You have earned a free ride, your token is %s", token.Token)
	}
	return result, nil
}

func insufficient(accountID string, available, requested decimal.Decimal) error {
	return newError(KindInsufficientFunds, accountID,
		"sorry, you cannot transfer more than your wallet amount (available %s, requested %s)", available, requested)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
