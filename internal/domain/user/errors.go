package user

import (
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

var (
	// ErrAccountRequired 注册时必须同时提交账户资料
	ErrAccountRequired = apperrors.New(apperrors.ErrCodeBadRequest, "缺少账户资料")

	// ErrAccountDeleteAlone 账户只能随用户一起删除
	ErrAccountDeleteAlone = apperrors.New(apperrors.ErrCodeConflict, "账户不能单独删除，请删除用户")

	// ErrAccountOwnerImmutable 账户创建后不能转移给其他用户
	ErrAccountOwnerImmutable = apperrors.New(apperrors.ErrCodeImmutable, "账户所属用户不可修改")

	ErrInvalidPassword = apperrors.New(apperrors.ErrCodeBadRequest, "密码错误")
)
