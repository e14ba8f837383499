package relation

import (
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// ErrUnknownRelation 实体没有声明该关联
var ErrUnknownRelation = apperrors.New(apperrors.ErrCodeUnknownRelation, "未声明的关联")
