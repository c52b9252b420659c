// Package notify holds the notification sinks that do not need a broker.
package notify

import (
	"context"
	"errors"

	"github.com/campusride/wallet-ledger/internal/interfaces"
	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/sirupsen/logrus"
)

// Fanout delivers every notification to all of its sinks and joins their errors
type Fanout []interfaces.Notifier

func (f Fanout) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes notifications to the log. Used when no broker is configured.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (l LogNotifier) Notify(ctx context.Context, n models.Notification) error {
	l.Log.WithFields(logrus.Fields{
		"component":    "notify",
		"recipient_id": n.RecipientID,
		"icon":         n.Icon,
	}).Info(n.Message)
	return nil
}
