package asset

import (
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

var (
	ErrUnknownType       = apperrors.New(apperrors.ErrCodeBadRequest, "未知的资产类型")
	ErrUnregisteredType  = apperrors.New(apperrors.ErrCodeBadRequest, "资产类型未注册查找函数")
	ErrInvalidTarget     = apperrors.New(apperrors.ErrCodeBadRequest, "资产目标ID不能为空")
	ErrTargetNotFound    = apperrors.New(apperrors.ErrCodeReferenceNotFound, "资产指向的记录不存在")
	ErrTargetHasNoAssets = apperrors.New(apperrors.ErrCodeConflict, "目标没有可下载的数字资产")

	// ErrAssetHasSales 已成交的数字资产不能删除
	ErrAssetHasSales = apperrors.New(apperrors.ErrCodeEntitlementExists, "数字资产已有成交记录，不能删除")

	// ErrTargetImmutable 资产创建后不能改指向
	ErrTargetImmutable = apperrors.New(apperrors.ErrCodeImmutable, "数字资产的asset_type/asset_id创建后不可修改")
)
