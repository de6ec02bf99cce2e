package models

import "gorm.io/gorm"

// UserCoinBalance is the derived balance for one user. It must always
// satisfy TotalBalance = LifetimeEarned - LifetimeSpent and is recalculable
// from the full coin_transactions history.
type UserCoinBalance struct {
	gorm.Model
	UserID         uint  `gorm:"not null;uniqueIndex" json:"userId"`
	TotalBalance   int64 `gorm:"not null;default:0" json:"totalBalance"`
	LifetimeEarned int64 `gorm:"not null;default:0" json:"lifetimeEarned"`
	LifetimeSpent  int64 `gorm:"not null;default:0" json:"lifetimeSpent"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserCoinBalance) TableName() string {
	return "user_coin_balances"
}
