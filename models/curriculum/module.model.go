package curriculum

import "gorm.io/gorm"

// Module represents a section within a week. A module has no unlock rule
// of its own; its completion is the aggregate of its lessons'.
type Module struct {
	gorm.Model
	WeekID      uint   `json:"week_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"` // Module order in week
	IsDeleted   bool   `gorm:"default:false"`
}

func (Module) TableName() string {
	return "modules"
}
