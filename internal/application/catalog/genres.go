package catalog

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/catalog"
)

// GenreUseCase 专辑与流派的关联
type GenreUseCase struct {
	linker catalog.GenreLinker
}

// NewGenreUseCase 创建流派关联用例
func NewGenreUseCase(linker catalog.GenreLinker) *GenreUseCase {
	return &GenreUseCase{linker: linker}
}

// Attach 幂等；专辑或流派不存在返回NotFound
func (uc *GenreUseCase) Attach(ctx context.Context, albumID, genreID uint) error {
	return uc.linker.Attach(ctx, albumID, genreID)
}

// Detach 关联不存在返回NotFound
func (uc *GenreUseCase) Detach(ctx context.Context, albumID, genreID uint) error {
	return uc.linker.Detach(ctx, albumID, genreID)
}
