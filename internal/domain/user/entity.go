package user

import (
	"time"
)

// User 用户实体（聚合根）
// 与Account一对一，注册时两者在同一事务中创建
type User struct {
	ID          uint
	Username    string
	Password    string // bcrypt哈希值
	LastLoginAt *time.Time
	Account     *Account
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Account 用户的账户资料
type Account struct {
	ID          uint
	UserID      uint
	Email       string
	FirstName   string
	LastName    string
	AddressOne  string
	AddressTwo  *string
	City        string
	Territory   string
	CountryCode string // ISO 3166-1 alpha-2
	PostalCode  string
	Phone       string
	AltPhone    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FullName 姓名
func (a *Account) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}
