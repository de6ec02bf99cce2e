package rewards

import (
	"sync"
	"testing"
	"time"

	"lms/models"
	"lms/services/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.CoinTransaction{},
		&models.UserCoinBalance{},
	))
	return db
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(LedgerConfig{
		DB:  newTestDB(t),
		Bus: events.NewBus(),
		Now: func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
}

func TestAwardCoinsCreatesTransactionAndBalance(t *testing.T) {
	ledger := newTestLedger(t)

	txn, err := ledger.AwardCoins(1, 50, models.CoinSourceTopic, 7, "Completed topic: Intro")
	require.NoError(t, err)

	assert.Equal(t, models.CoinTransactionEarned, txn.TransactionType)
	assert.Equal(t, int64(0), txn.BalanceBefore)
	assert.Equal(t, int64(50), txn.BalanceAfter)
	assert.Equal(t, uint(7), txn.SourceID)

	balance, err := ledger.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance.TotalBalance)
	assert.Equal(t, int64(50), balance.LifetimeEarned)
	assert.Equal(t, int64(0), balance.LifetimeSpent)
}

func TestAwardCoinsRejectsNonPositiveAmount(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.AwardCoins(1, 0, models.CoinSourceTopic, 1, "zero")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ledger.AwardCoins(1, -10, models.CoinSourceTopic, 1, "negative")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSpendCoinsDecrementsBalance(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.AwardCoins(1, 100, models.CoinSourceTopic, 1, "earn")
	require.NoError(t, err)

	txn, err := ledger.SpendCoins(1, 30, models.CoinSourceStore, 5, "Avatar frame")
	require.NoError(t, err)
	assert.Equal(t, models.CoinTransactionSpent, txn.TransactionType)
	assert.Equal(t, int64(100), txn.BalanceBefore)
	assert.Equal(t, int64(70), txn.BalanceAfter)

	balance, err := ledger.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance.TotalBalance)
	assert.Equal(t, int64(30), balance.LifetimeSpent)
}

func TestSpendCoinsInsufficientBalanceLeavesStateUntouched(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.AwardCoins(1, 70, models.CoinSourceTopic, 1, "earn")
	require.NoError(t, err)

	_, err = ledger.SpendCoins(1, 71, models.CoinSourceStore, 9, "too expensive")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Balance unchanged and no SPENT row written
	balance, err := ledger.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance.TotalBalance)

	txns, total, err := ledger.GetTransactions(1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, models.CoinTransactionEarned, txns[0].TransactionType)
}

func TestSpendCoinsSnapshotsChainAcrossConcurrentSpends(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.AwardCoins(1, 100, models.CoinSourceTopic, 1, "earn")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.SpendCoins(1, 30, models.CoinSourceStore, uint(i+1), "spend")
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	var spends []models.CoinTransaction
	require.NoError(t, ledger.db.
		Where("user_id = ? AND transaction_type = ?", 1, models.CoinTransactionSpent).
		Order("id").Find(&spends).Error)
	require.Len(t, spends, 2)

	// Each snapshot reflects the row the guarded update produced, so
	// the two rows chain 100 -> 70 -> 40 regardless of interleaving
	assert.Equal(t, int64(100), spends[0].BalanceBefore)
	assert.Equal(t, int64(70), spends[0].BalanceAfter)
	assert.Equal(t, spends[0].BalanceAfter, spends[1].BalanceBefore)
	assert.Equal(t, int64(40), spends[1].BalanceAfter)

	balance, err := ledger.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance.TotalBalance)
}

func TestBonusCountsTowardEarned(t *testing.T) {
	ledger := newTestLedger(t)

	txn, err := ledger.AwardBonus(2, 25, "Welcome bonus")
	require.NoError(t, err)
	assert.Equal(t, models.CoinTransactionBonus, txn.TransactionType)
	assert.Equal(t, models.CoinSourceManual, txn.SourceType)

	balance, err := ledger.GetBalance(2)
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance.TotalBalance)
	assert.Equal(t, int64(25), balance.LifetimeEarned)
}

func TestRecalculateBalanceRepairsDrift(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.AwardCoins(1, 100, models.CoinSourceTopic, 1, "earn")
	require.NoError(t, err)
	_, err = ledger.AwardBonus(1, 20, "bonus")
	require.NoError(t, err)
	_, err = ledger.SpendCoins(1, 40, models.CoinSourceStore, 3, "spend")
	require.NoError(t, err)

	// Corrupt the derived row out from under the ledger
	require.NoError(t, ledger.db.Model(&models.UserCoinBalance{}).
		Where("user_id = ?", 1).
		Update("total_balance", 9999).Error)

	balance, err := ledger.RecalculateBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(80), balance.TotalBalance)
	assert.Equal(t, int64(120), balance.LifetimeEarned)
	assert.Equal(t, int64(40), balance.LifetimeSpent)

	// Idempotent: a second recalculation changes nothing
	again, err := ledger.RecalculateBalance(1)
	require.NoError(t, err)
	assert.Equal(t, balance.TotalBalance, again.TotalBalance)

	// History itself is untouched by recalculation
	_, total, err := ledger.GetTransactions(1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestGetBalanceCreatesZeroRow(t *testing.T) {
	ledger := newTestLedger(t)

	balance, err := ledger.GetBalance(42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.TotalBalance)
	assert.Equal(t, uint(42), balance.UserID)
}

func TestGetTransactionsNewestFirst(t *testing.T) {
	ledger := newTestLedger(t)

	for i := 1; i <= 5; i++ {
		_, err := ledger.AwardCoins(1, int64(i*10), models.CoinSourceTopic, uint(i), "earn")
		require.NoError(t, err)
	}

	txns, total, err := ledger.GetTransactions(1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, txns, 2)
	assert.Equal(t, int64(50), txns[0].Amount)
	assert.Equal(t, int64(40), txns[1].Amount)
}
