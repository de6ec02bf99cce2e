package rewards

import (
	"errors"
	"time"

	"lms/models"
	"lms/services/events"

	"gorm.io/gorm"
)

// ErrInsufficientBalance is the expected business outcome when a spend
// exceeds the user's balance. No transaction row is written for it.
var ErrInsufficientBalance = errors.New("insufficient coin balance")

// ErrInvalidAmount is returned when a ledger operation is called with a
// non-positive amount.
var ErrInvalidAmount = errors.New("coin amount must be greater than zero")

// LedgerConfig holds dependencies for the coin ledger.
type LedgerConfig struct {
	DB  *gorm.DB
	Bus *events.Bus
	Now func() time.Time // defaults to time.Now
}

// Ledger owns all balance mutation. Every earned/spent coin is one
// immutable row in coin_transactions; user_coin_balances is derived and
// can always be rebuilt from the history via RecalculateBalance.
type Ledger struct {
	db  *gorm.DB
	bus *events.Bus
	now func() time.Time
}

// NewLedger creates a coin ledger.
func NewLedger(cfg LedgerConfig) *Ledger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	bus := cfg.Bus
	if bus == nil {
		bus = events.Default
	}
	return &Ledger{db: cfg.DB, bus: bus, now: now}
}

// AwardCoins appends an EARNED transaction and increments the balance.
// Earning never fails for insufficiency.
func (l *Ledger) AwardCoins(userID uint, amount int64, sourceType string, sourceID uint, description string) (*models.CoinTransaction, error) {
	var txn *models.CoinTransaction
	err := l.db.Transaction(func(tx *gorm.DB) error {
		t, err := l.AwardCoinsTx(tx, userID, amount, sourceType, sourceID, description)
		txn = t
		return err
	})
	if err != nil {
		return nil, err
	}
	l.bus.Emit(events.CoinsAwarded, map[string]interface{}{
		"user_id":     userID,
		"amount":      amount,
		"source_type": sourceType,
		"source_id":   sourceID,
	})
	return txn, nil
}

// AwardCoinsTx is AwardCoins running inside the caller's transaction, for
// operations that must commit a completion and its reward together.
func (l *Ledger) AwardCoinsTx(tx *gorm.DB, userID uint, amount int64, sourceType string, sourceID uint, description string) (*models.CoinTransaction, error) {
	return l.creditTx(tx, userID, amount, models.CoinTransactionEarned, sourceType, sourceID, description)
}

// AwardBonus appends a BONUS transaction, tagged as a manual source.
func (l *Ledger) AwardBonus(userID uint, amount int64, description string) (*models.CoinTransaction, error) {
	var txn *models.CoinTransaction
	err := l.db.Transaction(func(tx *gorm.DB) error {
		t, err := l.creditTx(tx, userID, amount, models.CoinTransactionBonus, models.CoinSourceManual, 0, description)
		txn = t
		return err
	})
	if err != nil {
		return nil, err
	}
	l.bus.Emit(events.CoinsAwarded, map[string]interface{}{
		"user_id":     userID,
		"amount":      amount,
		"source_type": models.CoinSourceManual,
	})
	return txn, nil
}

func (l *Ledger) creditTx(tx *gorm.DB, userID uint, amount int64, txnType models.CoinTransactionType, sourceType string, sourceID uint, description string) (*models.CoinTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	balance, err := l.GetBalanceTx(tx, userID)
	if err != nil {
		return nil, err
	}

	balanceBefore := balance.TotalBalance
	balanceAfter := balanceBefore + amount

	txn := models.CoinTransaction{
		UserID:          userID,
		TransactionType: txnType,
		Amount:          amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		Description:     description,
		SourceType:      sourceType,
		SourceID:        sourceID,
		TransactionDate: l.now(),
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&models.UserCoinBalance{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_balance":   gorm.Expr("total_balance + ?", amount),
			"lifetime_earned": gorm.Expr("lifetime_earned + ?", amount),
		}).Error; err != nil {
		return nil, err
	}

	return &txn, nil
}

// SpendCoins appends a SPENT transaction and decrements the balance.
// The decrement is a conditional update guarded on the current balance,
// so a concurrent spend by the same user can never drive it negative.
func (l *Ledger) SpendCoins(userID uint, amount int64, sourceType string, sourceID uint, description string) (*models.CoinTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var txn *models.CoinTransaction
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if _, err := l.GetBalanceTx(tx, userID); err != nil {
			return err
		}

		res := tx.Model(&models.UserCoinBalance{}).
			Where("user_id = ? AND total_balance >= ?", userID, amount).
			Updates(map[string]interface{}{
				"total_balance":  gorm.Expr("total_balance - ?", amount),
				"lifetime_spent": gorm.Expr("lifetime_spent + ?", amount),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		// The snapshot columns come from the row the guarded update
		// produced, not from a read taken before it; a concurrent spend
		// can land between that read and the update.
		var after models.UserCoinBalance
		if err := tx.Where("user_id = ?", userID).First(&after).Error; err != nil {
			return err
		}

		t := models.CoinTransaction{
			UserID:          userID,
			TransactionType: models.CoinTransactionSpent,
			Amount:          amount,
			BalanceBefore:   after.TotalBalance + amount,
			BalanceAfter:    after.TotalBalance,
			Description:     description,
			SourceType:      sourceType,
			SourceID:        sourceID,
			TransactionDate: l.now(),
		}
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		txn = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.bus.Emit(events.CoinsSpent, map[string]interface{}{
		"user_id":     userID,
		"amount":      amount,
		"source_type": sourceType,
		"source_id":   sourceID,
	})
	return txn, nil
}

// GetBalance returns the user's balance row, creating a zero row if none
// exists yet.
func (l *Ledger) GetBalance(userID uint) (*models.UserCoinBalance, error) {
	return l.GetBalanceTx(l.db, userID)
}

// GetBalanceTx is GetBalance inside the caller's transaction.
func (l *Ledger) GetBalanceTx(tx *gorm.DB, userID uint) (*models.UserCoinBalance, error) {
	var balance models.UserCoinBalance
	err := tx.Where("user_id = ?", userID).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		balance = models.UserCoinBalance{UserID: userID}
		if err := tx.Create(&balance).Error; err != nil {
			return nil, err
		}
		return &balance, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// RecalculateBalance re-derives the balance strictly from the summed
// transaction history and persists the corrected values. It is the
// integrity repair path: idempotent, and it never creates or alters
// transaction rows.
func (l *Ledger) RecalculateBalance(userID uint) (*models.UserCoinBalance, error) {
	var balance *models.UserCoinBalance
	err := l.db.Transaction(func(tx *gorm.DB) error {
		b, err := l.GetBalanceTx(tx, userID)
		if err != nil {
			return err
		}

		var earned, spent int64
		if err := tx.Model(&models.CoinTransaction{}).
			Where("user_id = ? AND transaction_type IN ? AND is_deleted = ?", userID, []models.CoinTransactionType{models.CoinTransactionEarned, models.CoinTransactionBonus}, false).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&earned).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.CoinTransaction{}).
			Where("user_id = ? AND transaction_type = ? AND is_deleted = ?", userID, models.CoinTransactionSpent, false).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&spent).Error; err != nil {
			return err
		}

		b.LifetimeEarned = earned
		b.LifetimeSpent = spent
		b.TotalBalance = earned - spent
		if err := tx.Save(b).Error; err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// GetTransactions returns the user's transaction history, newest first.
func (l *Ledger) GetTransactions(userID uint, page, limit int) ([]models.CoinTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := l.db.Model(&models.CoinTransaction{}).
		Where("user_id = ? AND is_deleted = ?", userID, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.CoinTransaction
	if err := query.Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
