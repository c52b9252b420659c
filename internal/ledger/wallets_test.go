package ledger

import (
	"testing"

	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletSet_BalanceIncludesEveryChange(t *testing.T) {
	ws := newWalletSet(map[string]models.Wallet{
		"rider":    {ID: "w-rider", AccountID: "rider", Balance: dec("100")},
		"platform": {ID: "w-platform", AccountID: "platform", Balance: dec("0")},
	})

	require.NoError(t, ws.debit("rider", dec("50")))
	require.NoError(t, ws.credit("platform", dec("50")))
	require.NoError(t, ws.credit("platform", dec("1")))

	assert.True(t, dec("50").Equal(ws.balance("rider")))
	assert.True(t, dec("51").Equal(ws.balance("platform")))
	assert.Equal(t, []string{"rider", "platform"}, ws.touched)
}

func TestWalletSet_DebitLeavesWalletOnShortfall(t *testing.T) {
	ws := newWalletSet(map[string]models.Wallet{
		"rider": {ID: "w-rider", AccountID: "rider", Balance: dec("10")},
	})

	err := ws.debit("rider", dec("10.01"))

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, dec("10").Equal(ws.balance("rider")))
	assert.Empty(t, ws.touched)
	assert.ErrorIs(t, ws.credit("ghost", dec("1")), ErrNotFound)
}
