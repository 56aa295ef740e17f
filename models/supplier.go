package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"gorm.io/gorm"
)

type Supplier struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PhoneCountry string `json:"phone_country"`
}

func CreateSupplier(ctx context.Context, input NewSupplier) (*Supplier, error) {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return nil, NewInvalidArgumentError("invalid email address")
	}
	if input.Phone != "" {
		country := input.PhoneCountry
		if country == "" {
			country = "US"
		}
		if err := utils.ValidatePhoneNumber(input.Phone, country); err != nil {
			return nil, NewInvalidArgumentError("invalid phone number for region %s", country)
		}
	}

	supplier := Supplier{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func ListSuppliers(ctx context.Context, page int) ([]*Supplier, int64, error) {
	db := config.GetDB()

	var total int64
	if err := db.WithContext(ctx).Model(&Supplier{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	var suppliers []*Supplier
	if err := db.WithContext(ctx).
		Order("name ASC").
		Limit(config.SearchLimit).
		Offset((page - 1) * config.SearchLimit).
		Find(&suppliers).Error; err != nil {
		return nil, 0, err
	}
	return suppliers, total, nil
}

func GetSupplierById(ctx context.Context, id int) (*Supplier, error) {
	var supplier Supplier
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Supplier %d not found", id)
		}
		return nil, err
	}
	return &supplier, nil
}
