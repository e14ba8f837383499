package user

import (
	"context"

	"github.com/xiebiao/mediastore/internal/application/resource"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/internal/domain/user"
	"github.com/xiebiao/mediastore/internal/infrastructure/validation"
)

// NewService 用户资源用例
// 注册：校验（含嵌套account）→ 密码哈希 → User与Account同一事务写入
// 修改：请求中带password时重新哈希
func NewService(repo user.Repository, v *validation.Validator, hasher user.PasswordHasher) *resource.Service[user.User] {
	return resource.NewService[user.User](repo, v,
		resource.WithPrepare[user.User](HashPassword(hasher)),
	)
}

// NewAccountService 账户资源用例
func NewAccountService(repo user.AccountRepository, v *validation.Validator) *resource.Service[user.Account] {
	return resource.NewService[user.Account](repo, v)
}

// HashPassword 把明文密码替换为哈希值
func HashPassword(hasher user.PasswordHasher) resource.Prepare {
	return func(_ context.Context, _ validation.Mode, attrs repository.Attributes) error {
		plain, ok := attrs["password"].(string)
		if !ok {
			return nil
		}
		hashed, err := hasher.Hash(plain)
		if err != nil {
			return err
		}
		attrs["password"] = hashed
		return nil
	}
}
