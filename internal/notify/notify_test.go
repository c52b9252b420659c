package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type sinkFunc func(ctx context.Context, n models.Notification) error

func (f sinkFunc) Notify(ctx context.Context, n models.Notification) error { return f(ctx, n) }

func TestFanout_DeliversToEverySink(t *testing.T) {
	var got []string
	record := func(name string, err error) sinkFunc {
		return func(ctx context.Context, n models.Notification) error {
			got = append(got, name+":"+n.ID)
			return err
		}
	}
	first := errors.New("kafka down")
	second := errors.New("redis down")
	f := Fanout{record("a", first), record("b", nil), record("c", second)}

	err := f.Notify(context.Background(), models.Notification{ID: "n1"})

	assert.Equal(t, []string{"a:n1", "b:n1", "c:n1"}, got)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestFanout_Empty(t *testing.T) {
	assert.NoError(t, Fanout{}.Notify(context.Background(), models.Notification{}))
}

func TestLogNotifier(t *testing.T) {
	log, hook := test.NewNullLogger()

	err := LogNotifier{Log: log}.Notify(context.Background(), models.Notification{RecipientID: "acc-1", Message: "credited", Icon: models.IconTopUp})

	assert.NoError(t, err)
	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, logrus.InfoLevel, entry.Level)
		assert.Equal(t, "credited", entry.Message)
		assert.Equal(t, "acc-1", entry.Data["recipient_id"])
	}
}
