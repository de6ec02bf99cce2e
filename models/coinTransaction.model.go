package models

import (
	"time"

	"gorm.io/gorm"
)

// CoinTransactionType defines the type of coin transaction
type CoinTransactionType string

const (
	CoinTransactionEarned CoinTransactionType = "EARNED"
	CoinTransactionSpent  CoinTransactionType = "SPENT"
	CoinTransactionBonus  CoinTransactionType = "BONUS"
)

// Coin source types recorded on transactions
const (
	CoinSourceTopic  = "topic"
	CoinSourceStore  = "store"
	CoinSourceManual = "manual"
)

// CoinTransaction is one immutable row in the append-only coin ledger.
// Amount is always a positive magnitude; SPENT rows are applied as a
// subtraction when the balance is derived.
type CoinTransaction struct {
	gorm.Model
	UserID          uint                `gorm:"not null;index" json:"userId"`
	TransactionType CoinTransactionType `gorm:"type:varchar(20);not null" json:"transactionType"`
	Amount          int64               `gorm:"not null" json:"amount"`
	BalanceBefore   int64               `gorm:"not null" json:"balanceBefore"`
	BalanceAfter    int64               `gorm:"not null" json:"balanceAfter"`
	Description     string              `gorm:"type:text" json:"description"`

	// Reference details (what earned/spent the coins)
	SourceType string `gorm:"type:varchar(50);index" json:"sourceType"` // topic, store, manual
	SourceID   uint   `gorm:"default:0" json:"sourceId"`

	TransactionDate time.Time `gorm:"not null" json:"transactionDate"`
	IsDeleted       bool      `gorm:"default:false" json:"isDeleted"`

	// Relations - omit in JSON by default (only load when needed)
	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (CoinTransaction) TableName() string {
	return "coin_transactions"
}
