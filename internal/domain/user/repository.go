package user

import (
	"github.com/xiebiao/mediastore/internal/domain/repository"
)

// Repository 用户仓储
// Create接受嵌套的account属性，User与Account原子写入；Update同样支持嵌套的account局部更新
type Repository = repository.Repository[User]

// AccountRepository 账户仓储（账户创建后可独立修改）
type AccountRepository = repository.Repository[Account]
