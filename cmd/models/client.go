package models

import (
	"time"

	"gorm.io/gorm"
)

type Client struct {
	gorm.Model
	Name          string     `gorm:"column:name;size:255;not null" json:"name"`
	Email         string     `gorm:"column:email;size:255" json:"email"`
	Phone         string     `gorm:"column:phone;size:20" json:"phone"`
	LastServiceAt *time.Time `gorm:"column:last_service_at" json:"last_service_at,omitempty"`
	TotalSpent    float64    `gorm:"column:total_spent;default:0" json:"total_spent"`
	Active        bool       `gorm:"column:active;default:true" json:"active"`

	Vehicles []Vehicle `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE;" json:"vehicles,omitempty"`
}

type Vehicle struct {
	gorm.Model
	ClientID uint   `gorm:"column:client_id;not null" json:"client_id"`
	Brand    string `gorm:"column:brand;size:100" json:"brand"`
	VModel   string `gorm:"column:vehicle_model;size:100;not null" json:"model"`
	Color    string `gorm:"column:color;size:50" json:"color"`
	Plate    string `gorm:"column:plate;size:20" json:"plate"`

	Client *Client `gorm:"foreignKey:ClientID" json:"-"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}
