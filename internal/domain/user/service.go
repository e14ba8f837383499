package user

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// DefaultCost bcrypt代价，每+1耗时翻倍
const DefaultCost = 12

// PasswordHasher 密码哈希
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hashed, plain string) error
}

type bcryptHasher struct {
	cost int
}

// NewPasswordHasher 创建bcrypt哈希器，cost不合法时使用DefaultCost
func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", apperrors.Wrap(err, "密码加密失败")
	}
	return string(hashed), nil
}

// Verify 校验明文与哈希是否匹配
func (h *bcryptHasher) Verify(hashed, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return apperrors.Wrap(err, "密码验证失败")
	}
	return nil
}
