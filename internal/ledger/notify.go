package ledger

import (
	"context"
	"fmt"

	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/campusride/wallet-ledger/internal/models/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Everything in this file runs after the settlement committed. Failures are
// logged and never undo or fail the settlement.

func (e *Engine) notify(ctx context.Context, recipientID, senderID, icon, format string, args ...any) {
	if e.notifier == nil {
		return
	}
	n := models.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Message:     fmt.Sprintf(format, args...),
		Icon:        icon,
		CreatedAt:   e.now(),
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"account_id": recipientID,
			"icon":       icon,
		}).Warn("notification not delivered")
	}
}

func (e *Engine) publish(ctx context.Context, entry models.LedgerEntry, fee decimal.Decimal) {
	if e.events == nil {
		return
	}
	event := events.SettlementCompleted{
		EntryID:    entry.ID,
		Kind:       string(entry.Kind),
		SenderID:   entry.SenderID,
		ReceiverID: entry.ReceiverID,
		Amount:     entry.Amount,
		Fee:        fee,
		OccurredAt: entry.CreatedAt,
	}
	if err := e.events.Publish(ctx, events.SettlementCompletedTopic, event); err != nil {
		e.log.WithError(err).WithField("entry_id", entry.ID).Warn("settlement event not published")
	}
}

func (e *Engine) issueReward(ctx context.Context, rider models.Account, rideCount int) *models.FreeRideToken {
	if e.rewards == nil {
		return nil
	}
	token, err := e.rewards.MaybeIssue(ctx, rider, rideCount)
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"account_id": rider.ID,
			"ride_count": rideCount,
		}).Warn("free ride token not issued")
		return nil
	}
	return token
}
