package catalog

import (
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// 目录领域错误定义
var (
	ErrArtistHasAlbums = apperrors.New(apperrors.ErrCodeConflict, "艺人下仍有专辑，不能删除")

	// ErrAlbumHasSales 专辑已有成交，删除会让买家失去下载权益
	ErrAlbumHasSales = apperrors.New(apperrors.ErrCodeEntitlementExists, "专辑已有成交记录，不能删除")

	ErrSongHasSales = apperrors.New(apperrors.ErrCodeEntitlementExists, "单曲已有成交记录，不能删除")

	// ErrSongFileInUse 已售单曲的音频文件或SKU不能删除
	ErrSongFileInUse = apperrors.New(apperrors.ErrCodeEntitlementExists, "单曲已有成交记录，不能删除其音频文件或SKU")

	ErrSongNotSellable     = apperrors.New(apperrors.ErrCodeConflict, "单曲缺少音频文件和SKU，不可售")
	ErrSongMissingFlacFile = apperrors.New(apperrors.ErrCodeConflict, "单曲缺少音频文件，不可售")
	ErrSongMissingSku      = apperrors.New(apperrors.ErrCodeConflict, "单曲缺少SKU，不可售")
)
