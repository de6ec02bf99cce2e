package learningController

import (
	"errors"

	"lms/database"
	"lms/middleware"
	"lms/services/certificates"

	"github.com/gofiber/fiber/v2"
)

// RequestCertificate issues a cohort completion certificate once every
// week is completed
func RequestCertificate(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	cohortID := c.Locals("cohortID").(uint)

	service := certificates.NewService(certificates.ServiceConfig{DB: database.Database.Db})
	cert, err := service.IssueCertificate(userID, cohortID)
	if errors.Is(err, certificates.ErrCohortIncomplete) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Complete every week of the cohort first!", nil)
	}
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate issued!", cert)
}

// GetUserCertificates lists the caller's certificates
func GetUserCertificates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	service := certificates.NewService(certificates.ServiceConfig{DB: database.Database.Db})
	certs, err := service.GetUserCertificates(userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched!", certs)
}
