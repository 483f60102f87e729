package entity

import (
	"time"

	"gorm.io/datatypes"
)

type ScreenDefinition struct {
	ID           int64          `gorm:"primaryKey;autoIncrement"`
	Name         string         `gorm:"not null;uniqueIndex"`
	Route        string         `gorm:"not null"`
	Layout       datatypes.JSON `gorm:"type:jsonb"`
	DisplayOrder int            `gorm:"not null;default:0"`
	IsActive     bool           `gorm:"not null;default:true"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
}

func (ScreenDefinition) TableName() string {
	return "screen_definitions"
}
