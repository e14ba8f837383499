package resource

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/relation"
	"github.com/xiebiao/mediastore/internal/domain/repository"
)

// RelationUseCase 按名字查询实体的关联
type RelationUseCase struct {
	resolver *relation.Resolver
}

// NewRelationUseCase 创建关联查询用例
func NewRelationUseCase(resolver *relation.Resolver) *RelationUseCase {
	return &RelationUseCase{resolver: resolver}
}

// Execute 未声明的关联返回ErrUnknownRelation，实体不存在返回NotFound
func (uc *RelationUseCase) Execute(ctx context.Context, kind repository.Kind, id uint, name string) (*relation.Related, error) {
	return uc.resolver.Related(ctx, kind, id, relation.Name(name))
}

// Declared 实体声明的关联名
func (uc *RelationUseCase) Declared(kind repository.Kind) []relation.Name {
	return uc.resolver.Declared(kind)
}
