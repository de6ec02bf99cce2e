package coinController

import (
	"errors"

	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/services/rewards"

	"github.com/gofiber/fiber/v2"
)

func ledger() *rewards.Ledger {
	return rewards.NewLedger(rewards.LedgerConfig{DB: database.Database.Db})
}

// GetCoinBalance returns the user's current coin balance
func GetCoinBalance(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	balance, err := ledger().GetBalance(userId)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch balance!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Coin balance fetched!", fiber.Map{
		"balance":         balance.TotalBalance,
		"lifetime_earned": balance.LifetimeEarned,
		"lifetime_spent":  balance.LifetimeSpent,
	})
}

// GetCoinHistory returns the user's coin transaction history
func GetCoinHistory(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	reqData, ok := c.Locals("validatedCoinHistory").(*struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	})
	page, limit := 1, 20
	if ok {
		page, limit = *reqData.Page, *reqData.Limit
	}

	txns, total, err := ledger().GetTransactions(userId, page, limit)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch transactions!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Transactions fetched!", fiber.Map{
		"transactions": txns,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// SpendCoins spends coins from the user's balance
func SpendCoins(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	reqData, ok := c.Locals("validatedSpend").(*struct {
		Amount      int64  `json:"amount"`
		SourceType  string `json:"sourceType"`
		SourceID    uint   `json:"sourceId"`
		Description string `json:"description"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	txn, err := ledger().SpendCoins(userId, reqData.Amount, reqData.SourceType, reqData.SourceID, reqData.Description)
	if errors.Is(err, rewards.ErrInsufficientBalance) {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Insufficient coin balance!", nil)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to spend coins!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Coins spent!", fiber.Map{
		"transactionId": txn.ID,
		"amount":        txn.Amount,
		"balanceBefore": txn.BalanceBefore,
		"balanceAfter":  txn.BalanceAfter,
	})
}

// AdminAwardBonus credits bonus coins to a user (manual source)
func AdminAwardBonus(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedBonus").(*struct {
		UserID      uint   `json:"userId"`
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", reqData.UserID).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	txn, err := ledger().AwardBonus(reqData.UserID, reqData.Amount, reqData.Description)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to award bonus!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Bonus awarded!", txn)
}

// AdminRecalculateBalance re-derives a user's balance from the
// transaction history (integrity repair)
func AdminRecalculateBalance(c *fiber.Ctx) error {
	userID, ok := c.Locals("targetUserId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	balance, err := ledger().RecalculateBalance(userID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to recalculate balance!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Balance recalculated!", balance)
}
