package entity

import "time"

type MenuItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ScreenID  int64     `gorm:"not null;index"`
	Label     string    `gorm:"not null"`
	Icon      string    `gorm:""`
	Position  int       `gorm:"not null;default:0"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}
