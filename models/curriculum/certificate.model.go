package curriculum

import (
	"time"

	"gorm.io/gorm"
)

// Certificate represents an issued certificate for cohort completion
type Certificate struct {
	gorm.Model
	UserID            uint      `json:"user_id" gorm:"index;not null"`
	CohortID          uint      `json:"cohort_id" gorm:"index;not null"`
	CertificateURL    string    `json:"certificate_url"`
	CertificateNumber string    `json:"certificate_number" gorm:"unique"`
	IssuedAt          time.Time `json:"issued_at"`
	IsDeleted         bool      `gorm:"default:false"`
}

func (Certificate) TableName() string {
	return "certificates"
}
