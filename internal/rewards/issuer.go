// Package rewards issues single-use free-ride tokens to riders.
//
// A token value is a name-based UUID (SHA-1, DNS namespace) over the rider's
// email and the issue time. Two issues for the same rider in the same instant
// would collide, so generation retries with a counter mixed into the name and,
// once the retries are spent, with a random salt. The loop is always bounded.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/campusride/wallet-ledger/internal/interfaces"
	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const ReasonRideMilestone = "ride_milestone"

var ErrNoUniqueToken = errors.New("could not generate a unique free ride token")

// Predicate decides whether a rider's ride count earns a token
type Predicate func(account models.Account, rideCount int) bool

// EveryNthRide qualifies every n-th completed ride. n <= 0 never qualifies.
func EveryNthRide(n int) Predicate {
	return func(_ models.Account, rideCount int) bool {
		return n > 0 && rideCount > 0 && rideCount%n == 0
	}
}

type Issuer struct {
	store      interfaces.TokenStore
	qualifies  Predicate
	maxRetries int
	now        func() time.Time
	log        logrus.FieldLogger
}

func NewIssuer(store interfaces.TokenStore, qualifies Predicate, maxRetries int, log logrus.FieldLogger) *Issuer {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Issuer{
		store:      store,
		qualifies:  qualifies,
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log.WithField("component", "rewards"),
	}
}

func (i *Issuer) SetClock(now func() time.Time) { i.now = now }

// MaybeIssue returns a freshly stored token when the ride qualifies, nil otherwise
func (i *Issuer) MaybeIssue(ctx context.Context, account models.Account, rideCount int) (*models.FreeRideToken, error) {
	if i.qualifies == nil || !i.qualifies(account, rideCount) {
		return nil, nil
	}
	token := models.FreeRideToken{
		AccountID:   account.ID,
		Reason:      ReasonRideMilestone,
		Description: fmt.Sprintf("free ride for completing %d rides", rideCount),
	}

	// maxRetries counter-salted attempts after the plain one, then one random-salted attempt
	for attempt := 0; attempt <= i.maxRetries+1; attempt++ {
		salt := ""
		switch {
		case attempt > i.maxRetries:
			salt = uuid.NewString()
		case attempt > 0:
			salt = strconv.Itoa(attempt)
		}
		now := i.now()
		token.Token = TokenValue(account.Email, now, salt)
		token.CreatedAt = now

		exists, err := i.store.TokenExists(ctx, token.Token)
		if err != nil {
			return nil, err
		}
		if exists {
			i.log.WithField("attempt", attempt).Debug("free ride token collision")
			continue
		}
		err = i.store.SaveFreeRideToken(ctx, token)
		if errors.Is(err, interfaces.ErrDuplicateToken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &token, nil
	}
	return nil, ErrNoUniqueToken
}

// TokenValue derives the token for email at the given instant. salt widens the
// name on retries and is empty on the first attempt.
func TokenValue(email string, at time.Time, salt string) string {
	name := fmt.Sprintf("%s %s", email, at.Format(time.RFC3339Nano))
	if salt != "" {
		name += " " + salt
	}
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}
