package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:255" json:"name"`
	Role         UserRole  `gorm:"type:enum('cashier','manager','admin');default:cashier" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthPayload struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func RegisterUser(ctx context.Context, input NewUser) (*AuthPayload, error) {
	if !utils.IsValidEmail(input.Email) {
		return nil, NewInvalidArgumentError("invalid email address")
	}

	role := RoleCashier
	if input.Role != "" {
		if !IsValidRole(UserRole(input.Role)) {
			return nil, NewInvalidArgumentError("unknown role %s", input.Role)
		}
		role = UserRole(input.Role)
	}

	if err := utils.ValidateUnique[User](ctx, "email", input.Email, 0); err != nil {
		return nil, NewConflictError("email already registered")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Email:        input.Email,
		PasswordHash: string(hash),
		Name:         input.Name,
		Role:         role,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	token, err := utils.JwtGenerate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &AuthPayload{Token: token, User: &user}, nil
}

func Login(ctx context.Context, input LoginInput) (*AuthPayload, error) {
	var user User
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewInvalidArgumentError("incorrect email or password")
		}
		return nil, err
	}

	if err := utils.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return nil, NewInvalidArgumentError("incorrect email or password")
	}

	token, err := utils.JwtGenerate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	return &AuthPayload{Token: token, User: &user}, nil
}

func GetUserById(ctx context.Context, id int) (*User, error) {
	var user User
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("User %d not found", id)
		}
		return nil, err
	}
	return &user, nil
}
