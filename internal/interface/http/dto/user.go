package dto

import (
	"github.com/xiebiao/mediastore/internal/domain/user"
)

// UserResponse 用户响应，不包含密码
type UserResponse struct {
	ID          uint             `json:"id" example:"1"`
	Username    string           `json:"username" example:"foobius"`
	LastLoginAt *string          `json:"last_login_at"`
	Account     *AccountResponse `json:"account,omitempty"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

func NewUserResponse(u *user.User) *UserResponse {
	resp := &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		LastLoginAt: formatTimePtr(u.LastLoginAt),
		CreatedAt:   FormatTime(u.CreatedAt),
		UpdatedAt:   FormatTime(u.UpdatedAt),
	}
	if u.Account != nil {
		resp.Account = NewAccountResponse(u.Account)
	}
	return resp
}

type AccountResponse struct {
	ID          uint    `json:"id" example:"1"`
	UserID      uint    `json:"user_id" example:"1"`
	Email       string  `json:"email" example:"foo@example.com"`
	FirstName   string  `json:"first_name" example:"Foobius"`
	LastName    string  `json:"last_name" example:"Barius"`
	FullName    string  `json:"full_name" example:"Foobius Barius"`
	AddressOne  string  `json:"address_one"`
	AddressTwo  *string `json:"address_two"`
	City        string  `json:"city"`
	Territory   string  `json:"territory"`
	CountryCode string  `json:"country_code" example:"GB"`
	PostalCode  string  `json:"postal_code"`
	Phone       string  `json:"phone"`
	AltPhone    *string `json:"alt_phone"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func NewAccountResponse(a *user.Account) *AccountResponse {
	return &AccountResponse{
		ID:          a.ID,
		UserID:      a.UserID,
		Email:       a.Email,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		FullName:    a.FullName(),
		AddressOne:  a.AddressOne,
		AddressTwo:  a.AddressTwo,
		City:        a.City,
		Territory:   a.Territory,
		CountryCode: a.CountryCode,
		PostalCode:  a.PostalCode,
		Phone:       a.Phone,
		AltPhone:    a.AltPhone,
		CreatedAt:   FormatTime(a.CreatedAt),
		UpdatedAt:   FormatTime(a.UpdatedAt),
	}
}
