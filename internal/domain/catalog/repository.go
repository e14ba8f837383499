package catalog

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/repository"
)

// 目录实体的仓储均为通用仓储的实例
type (
	ArtistRepository   = repository.Repository[Artist]
	AlbumRepository    = repository.Repository[Album]
	GenreRepository    = repository.Repository[Genre]
	SongRepository     = repository.Repository[Song]
	FlacFileRepository = repository.Repository[FlacFile]
	SkuRepository      = repository.Repository[Sku]
)

// GenreLinker 维护Album与Genre的多对多关联
type GenreLinker interface {
	// Attach 幂等，重复关联不报错
	Attach(ctx context.Context, albumID, genreID uint) error
	Detach(ctx context.Context, albumID, genreID uint) error
}
