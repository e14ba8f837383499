// Package resource 通用资源用例
//
// 所有实体共用同一套 index/show/store/update/destroy 流程：
// 原始请求体 → 校验清洗 → 仓储。实体特有的处理（如密码哈希）通过Prepare钩子接入。
package resource

import (
	"context"

	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/internal/infrastructure/validation"
)

// Prepare 在校验之后、写入仓储之前修改属性
type Prepare func(ctx context.Context, mode validation.Mode, attrs repository.Attributes) error

// Option 服务选项
type Option[T any] func(*Service[T])

// WithPrepare 注册写入前钩子
func WithPrepare[T any](fn Prepare) Option[T] {
	return func(s *Service[T]) {
		s.prepare = append(s.prepare, fn)
	}
}

// Service 某类实体的CRUD用例
type Service[T any] struct {
	repo      repository.Repository[T]
	validator *validation.Validator
	prepare   []Prepare
}

// NewService 创建资源用例
func NewService[T any](repo repository.Repository[T], v *validation.Validator, opts ...Option[T]) *Service[T] {
	s := &Service[T]{repo: repo, validator: v}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind 实体类型
func (s *Service[T]) Kind() repository.Kind {
	return s.repo.Kind()
}

// Get 查询单条记录
func (s *Service[T]) Get(ctx context.Context, id uint) (*T, error) {
	return s.repo.FindByID(ctx, id)
}

// ListResult 分页结果
type ListResult[T any] struct {
	Items    []*T
	Total    int64
	Page     int
	PageSize int
}

// List 分页列表，page/pageSize的默认值和上限由仓储处理
func (s *Service[T]) List(ctx context.Context, page, pageSize int) (*ListResult[T], error) {
	items, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &ListResult[T]{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Create 校验后创建
func (s *Service[T]) Create(ctx context.Context, raw map[string]any) (*T, error) {
	attrs, err := s.attributes(ctx, validation.ModeCreate, raw)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, attrs)
}

// Update 局部更新，只校验请求中出现的字段
func (s *Service[T]) Update(ctx context.Context, id uint, raw map[string]any) (*T, error) {
	attrs, err := s.attributes(ctx, validation.ModeUpdate, raw)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, attrs)
}

// Delete 删除
func (s *Service[T]) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service[T]) attributes(ctx context.Context, mode validation.Mode, raw map[string]any) (repository.Attributes, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	attrs, err := s.validator.Validate(s.repo.Kind(), mode, raw)
	if err != nil {
		return nil, err
	}
	for _, fn := range s.prepare {
		if err := fn(ctx, mode, attrs); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}
