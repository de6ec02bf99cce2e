package curriculum

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Week belongs to one cohort. Week numbers are 0-based; week 0 is always
// free and unlocked. UnlockRules holds the declarative rule document
// interpreted by the unlock evaluator.
type Week struct {
	gorm.Model
	CohortID    uint           `json:"cohort_id" gorm:"index;not null"`
	WeekNumber  int            `json:"week_number" gorm:"index;not null"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	UnlockRules datatypes.JSON `json:"unlock_rules"`
	IsDeleted   bool           `gorm:"default:false"`
}

func (Week) TableName() string {
	return "weeks"
}
