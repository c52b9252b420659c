package ledger

import (
	"context"
	"time"

	"github.com/campusride/wallet-ledger/internal/interfaces"
	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// walletSet is the working copy of the wallets locked for one settlement.
// Balances only change here, and only reach the store through persist.
type walletSet struct {
	wallets map[string]models.Wallet // keyed by account id
	touched []string                 // account ids in the order they were first changed
}

func newWalletSet(wallets map[string]models.Wallet) *walletSet {
	return &walletSet{wallets: wallets}
}

func (s *walletSet) get(accountID string) (models.Wallet, error) {
	w, ok := s.wallets[accountID]
	if !ok {
		return models.Wallet{}, newError(KindNotFound, accountID, "wallet for account %s does not exist", accountID)
	}
	return w, nil
}

// balance is the working balance, including every change applied so far
func (s *walletSet) balance(accountID string) decimal.Decimal {
	return s.wallets[accountID].Balance
}

// debit takes amount out of the wallet.
// The wallet is left untouched if it would go negative.
func (s *walletSet) debit(accountID string, amount decimal.Decimal) error {
	w, err := s.get(accountID)
	if err != nil {
		return err
	}
	after := w.Balance.Sub(amount)
	if after.IsNegative() {
		return newError(KindInsufficientFunds, accountID,
			"insufficient funds: available %s, requested %s", w.Balance.String(), amount.String())
	}
	s.set(w, after)
	return nil
}

func (s *walletSet) credit(accountID string, amount decimal.Decimal) error {
	w, err := s.get(accountID)
	if err != nil {
		return err
	}
	s.set(w, w.Balance.Add(amount))
	return nil
}

func (s *walletSet) set(w models.Wallet, balance decimal.Decimal) {
	if !s.isTouched(w.AccountID) {
		s.touched = append(s.touched, w.AccountID)
	}
	w.Balance = balance
	s.wallets[w.AccountID] = w
}

func (s *walletSet) isTouched(accountID string) bool {
	for _, id := range s.touched {
		if id == accountID {
			return true
		}
	}
	return false
}

// persist writes every changed wallet, in the order they were changed
func (s *walletSet) persist(ctx context.Context, tx interfaces.LedgerTx, at time.Time) error {
	for _, accountID := range s.touched {
		w := s.wallets[accountID]
		err := tx.UpdateWallet(ctx, models.WalletUpdate{
			WalletID:  w.ID,
			AccountID: w.AccountID,
			Balance:   w.Balance,
			UpdatedAt: at,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
