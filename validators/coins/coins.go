package coinValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// CoinHistory validates pagination query params for the transaction list
func CoinHistory() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Page  *int `json:"page"`
			Limit *int `json:"limit"`
		})

		if page, err := strconv.Atoi(c.Query("page", "1")); err == nil {
			reqData.Page = &page
		}
		if limit, err := strconv.Atoi(c.Query("limit", "20")); err == nil {
			reqData.Limit = &limit
		}

		errors := make(map[string]string)

		if reqData.Page == nil || *reqData.Page < 1 {
			errors["page"] = "Page must be a positive integer!"
		}
		if reqData.Limit == nil || *reqData.Limit < 1 || *reqData.Limit > 100 {
			errors["limit"] = "Limit must be between 1 and 100!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCoinHistory", reqData)
		return c.Next()
	}
}

// Spend validates the coin spend request body
func Spend() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Amount      int64  `json:"amount"`
			SourceType  string `json:"sourceType"`
			SourceID    uint   `json:"sourceId"`
			Description string `json:"description"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Amount < 1 {
			errors["amount"] = "Amount must be greater than 0!"
		}
		if strings.TrimSpace(reqData.SourceType) == "" {
			reqData.SourceType = "store"
		}
		if strings.TrimSpace(reqData.Description) == "" {
			errors["description"] = "Description is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSpend", reqData)
		return c.Next()
	}
}

// Bonus validates the admin bonus award body
func Bonus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			UserID      uint   `json:"userId"`
			Amount      int64  `json:"amount"`
			Description string `json:"description"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.UserID < 1 {
			errors["userId"] = "User ID is required!"
		}
		if reqData.Amount < 1 {
			errors["amount"] = "Amount must be greater than 0!"
		}
		if strings.TrimSpace(reqData.Description) == "" {
			errors["description"] = "Description is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedBonus", reqData)
		return c.Next()
	}
}

// TargetUser parses the user_id route param for admin balance operations
func TargetUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("user_id"))
		if err != nil || id < 1 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"user_id": "Must be a positive integer!",
			})
		}
		c.Locals("targetUserId", uint(id))
		return c.Next()
	}
}
