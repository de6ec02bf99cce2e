package certificates

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lms/models/curriculum"
	"lms/services/events"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCohortIncomplete is returned when a certificate is requested before
// every week of the cohort is completed.
var ErrCohortIncomplete = errors.New("cohort is not fully completed")

// ServiceConfig holds dependencies for the certificate service.
type ServiceConfig struct {
	DB  *gorm.DB
	Bus *events.Bus
	Now func() time.Time // defaults to time.Now
}

// Service issues cohort completion certificates
type Service struct {
	db  *gorm.DB
	bus *events.Bus
	now func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	bus := cfg.Bus
	if bus == nil {
		bus = events.Default
	}
	return &Service{db: cfg.DB, bus: bus, now: now}
}

// IssueCertificate issues a certificate once every week of the cohort is
// at 100% for the user. Issuing twice returns the existing certificate.
func (s *Service) IssueCertificate(userID uint, cohortID uint) (*curriculum.Certificate, error) {
	var existing curriculum.Certificate
	err := s.db.Where("user_id = ? AND cohort_id = ? AND is_deleted = ?", userID, cohortID, false).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var totalWeeks, completedWeeks int64
	if err := s.db.Model(&curriculum.Week{}).
		Where("cohort_id = ? AND is_deleted = ?", cohortID, false).
		Count(&totalWeeks).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&curriculum.UserWeekProgress{}).
		Where("user_id = ? AND cohort_id = ? AND completed_at IS NOT NULL AND is_deleted = ?", userID, cohortID, false).
		Count(&completedWeeks).Error; err != nil {
		return nil, err
	}
	if totalWeeks == 0 || completedWeeks < totalWeeks {
		return nil, ErrCohortIncomplete
	}

	cert := curriculum.Certificate{
		UserID:            userID,
		CohortID:          cohortID,
		CertificateNumber: generateCertificateNumber(cohortID),
		IssuedAt:          s.now(),
	}
	if err := s.db.Create(&cert).Error; err != nil {
		return nil, err
	}

	s.bus.Emit(events.CertificateIssued, map[string]interface{}{
		"user_id":            userID,
		"cohort_id":          cohortID,
		"certificate_number": cert.CertificateNumber,
	})
	return &cert, nil
}

// GetUserCertificates lists a user's issued certificates
func (s *Service) GetUserCertificates(userID uint) ([]curriculum.Certificate, error) {
	var certs []curriculum.Certificate
	if err := s.db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("issued_at desc").
		Find(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}

func generateCertificateNumber(cohortID uint) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	return fmt.Sprintf("CERT-%d-%s", cohortID, suffix)
}
