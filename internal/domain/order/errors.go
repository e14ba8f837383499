package order

import (
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrInvalidStatusTransition 非法的状态转换
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidTransition, "订单状态不允许此操作")

	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeBadRequest, "未知的订单状态")

	// ErrOrderImmutable 已支付订单及其订单行不可修改或删除
	ErrOrderImmutable = apperrors.New(apperrors.ErrCodeImmutable, "订单已支付，不可修改")

	ErrEmptyCart        = apperrors.New(apperrors.ErrCodeConflict, "购物车为空")
	ErrAlreadyInCart    = apperrors.New(apperrors.ErrCodeDuplicateEntry, "购物车中已有该商品")
	ErrProductNotInCart = apperrors.New(apperrors.ErrCodeNotFound, "购物车中没有该商品")
	ErrCartChanged      = apperrors.New(apperrors.ErrCodeConflict, "购物车在结算过程中被修改，请重试")

	// ErrProductOwnerImmutable 订单行的归属只能由结算改变
	ErrProductOwnerImmutable = apperrors.New(apperrors.ErrCodeImmutable, "订单行的所属订单或购物车不可修改")

	// ErrOrphanProduct 订单行必须属于一个订单或一个购物车
	ErrOrphanProduct = apperrors.New(apperrors.ErrCodeBadRequest, "订单行必须指定order_id或cart_id")
)
