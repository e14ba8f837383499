package asset

import (
	"context"
	"fmt"
	"sort"

	"github.com/xiebiao/mediastore/internal/domain/repository"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// Lookup 按ID查找可售实体，不存在时返回NotFound类错误
type Lookup func(ctx context.Context, id uint) (any, error)

// EligibilityCheck 判断实体当前是否可售，可售返回nil
type EligibilityCheck func(ctx context.Context, id uint) error

// Binding 标签对应的查找方式
type Binding struct {
	Kind     repository.Kind
	Lookup   Lookup
	Eligible EligibilityCheck // 可为空，表示只要存在即可售
}

// Finder 仓储中按ID查找的部分
type Finder[T any] interface {
	FindByID(ctx context.Context, id uint) (*T, error)
}

// Registry 标签 → 查找函数
// 启动时显式注册，之后只读
type Registry struct {
	bindings map[Type]Binding
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[Type]Binding)}
}

// Register 注册标签，未知标签或重复注册会panic（属于启动期编程错误）
func (r *Registry) Register(t Type, b Binding) {
	if !t.IsValid() {
		panic(fmt.Sprintf("asset: register unknown type %q", t))
	}
	if _, dup := r.bindings[t]; dup {
		panic(fmt.Sprintf("asset: type %q registered twice", t))
	}
	if b.Lookup == nil {
		panic(fmt.Sprintf("asset: type %q registered without lookup", t))
	}
	r.bindings[t] = b
}

// RegisterRepository 用仓储注册标签
func RegisterRepository[T any](r *Registry, t Type, kind repository.Kind, finder Finder[T], eligible EligibilityCheck) {
	r.Register(t, Binding{
		Kind: kind,
		Lookup: func(ctx context.Context, id uint) (any, error) {
			v, err := finder.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
		Eligible: eligible,
	})
}

// Registered 已注册的标签（排序后）
func (r *Registry) Registered() []Type {
	out := make([]Type, 0, len(r.bindings))
	for t := range r.bindings {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Binding 取标签的注册信息
func (r *Registry) Binding(t Type) (Binding, error) {
	b, ok := r.bindings[t]
	if !ok {
		return Binding{}, ErrUnregisteredType.WithCause(fmt.Errorf("asset_type %q", t))
	}
	return b, nil
}

// Resolve 解析目标实体
// 未注册的标签返回ErrUnregisteredType，记录不存在返回ErrTargetNotFound
func (r *Registry) Resolve(ctx context.Context, target Target) (any, error) {
	entity, _, err := r.ResolveKind(ctx, target)
	return entity, err
}

// ResolveKind 解析目标实体，同时返回实体所属的Kind
func (r *Registry) ResolveKind(ctx context.Context, target Target) (any, repository.Kind, error) {
	b, err := r.Binding(target.Type)
	if err != nil {
		return nil, "", err
	}
	entity, err := b.Lookup(ctx, target.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, "", ErrTargetNotFound.WithCause(fmt.Errorf("%s: %w", target, err))
		}
		return nil, "", err
	}
	return entity, b.Kind, nil
}

// ResolveEligible 解析目标并检查可售
func (r *Registry) ResolveEligible(ctx context.Context, target Target) (any, error) {
	entity, err := r.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	b := r.bindings[target.Type]
	if b.Eligible != nil {
		if err := b.Eligible(ctx, target.ID); err != nil {
			return nil, err
		}
	}
	return entity, nil
}
