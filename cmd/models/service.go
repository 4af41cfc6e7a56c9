package models

import (
	"gorm.io/gorm"
)

// Service is a catalog entry. Appointments created without an explicit
// duration or price inherit the defaults defined here.
type Service struct {
	gorm.Model
	Name            string  `gorm:"column:name;size:255;not null" json:"name"`
	Description     string  `gorm:"column:description;type:text" json:"description"`
	DurationMinutes int     `gorm:"column:duration_minutes;not null" json:"duration_minutes"`
	Price           float64 `gorm:"column:price;not null" json:"price"`
	MaterialCost    float64 `gorm:"column:material_cost;default:0" json:"material_cost"`
	LaborCost       float64 `gorm:"column:labor_cost;default:0" json:"labor_cost"`
	Category        string  `gorm:"column:category;size:50" json:"category"`
	Active          bool    `gorm:"column:active;default:true" json:"active"`
}
