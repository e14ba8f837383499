package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/mediastore/internal/domain/repository"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
	"github.com/xiebiao/mediastore/pkg/metrics"
)

// reference 外键引用：写入前检查被引用的记录存在
type reference[M any] struct {
	key   string
	kind  repository.Kind
	model any
	value func(*M) uint
	// optional 为true时值为0表示不引用
	optional bool
}

// schema 描述一种实体如何映射到表
// 钩子都在调用方的事务中执行，db已经是事务DB
type schema[T any, M any] struct {
	kind     repository.Kind
	fields   fields[M]
	refs     []reference[M]
	preload  []string
	toEntity func(*M) *T

	// beforeCreate 插入前的存储层约束，可以补全模型字段
	beforeCreate func(ctx context.Context, db *gorm.DB, m *M) error
	// beforeUpdate 赋值前检查，cur是当前记录
	beforeUpdate func(ctx context.Context, db *gorm.DB, cur *M, attrs repository.Attributes) error
	// beforeDelete 删除前检查并级联删除从属记录
	beforeDelete func(ctx context.Context, db *gorm.DB, cur *M) error
}

// crudRepository 通用仓储实现
// 1. 属性经字段表过滤后写入，未知键忽略
// 2. 唯一约束冲突转换为Conflict，记录不存在转换为NotFound
// 3. 事务通过context传递
type crudRepository[T any, M any] struct {
	db *gorm.DB
	s  schema[T, M]
}

func newCRUDRepository[T any, M any](db *gorm.DB, s schema[T, M]) *crudRepository[T, M] {
	return &crudRepository[T, M]{db: db, s: s}
}

func (r *crudRepository[T, M]) Kind() repository.Kind {
	return r.s.kind
}

// FindByID 根据ID查找
func (r *crudRepository[T, M]) FindByID(ctx context.Context, id uint) (*T, error) {
	m, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.s.toEntity(m), nil
}

// Create 创建记录
func (r *crudRepository[T, M]) Create(ctx context.Context, attrs repository.Attributes) (t *T, err error) {
	defer func() { metrics.RecordRepositoryOp(r.s.kind.String(), "create", err) }()

	m := new(M)
	if _, err := r.assign(m, attrs, false); err != nil {
		return nil, err
	}

	err = transaction(ctx, r.db, func(ctx context.Context) error {
		if err := r.checkReferences(ctx, m, nil); err != nil {
			return err
		}
		if r.s.beforeCreate != nil {
			if err := r.s.beforeCreate(ctx, getDB(ctx, r.db), m); err != nil {
				return err
			}
		}
		if err := getDB(ctx, r.db).Create(m).Error; err != nil {
			return r.translate(err, "创建")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.s.toEntity(m), nil
}

// Update 局部更新
// 1. 只修改attrs中出现且在字段表里的键
// 2. 空attrs不做任何修改，返回当前记录
// 3. 读取、检查、写入、重新读取在同一事务中
func (r *crudRepository[T, M]) Update(ctx context.Context, id uint, attrs repository.Attributes) (t *T, err error) {
	defer func() { metrics.RecordRepositoryOp(r.s.kind.String(), "update", err) }()

	err = transaction(ctx, r.db, func(ctx context.Context) error {
		cur, err := r.find(ctx, id)
		if err != nil {
			return err
		}

		if !r.touches(attrs) {
			t = r.s.toEntity(cur)
			return nil
		}

		if r.s.beforeUpdate != nil {
			if err := r.s.beforeUpdate(ctx, getDB(ctx, r.db), cur, attrs); err != nil {
				return err
			}
		}

		columns, err := r.assign(cur, attrs, true)
		if err != nil {
			return err
		}

		if err := r.checkReferences(ctx, cur, attrs); err != nil {
			return err
		}

		if err := getDB(ctx, r.db).Model(cur).Select(columns).Updates(cur).Error; err != nil {
			return r.translate(err, "更新")
		}

		reloaded, err := r.find(ctx, id)
		if err != nil {
			return err
		}
		t = r.s.toEntity(reloaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Delete 删除记录
// 检查与级联删除在同一事务中，任何一步失败整体回滚
func (r *crudRepository[T, M]) Delete(ctx context.Context, id uint) (err error) {
	defer func() { metrics.RecordRepositoryOp(r.s.kind.String(), "delete", err) }()

	return transaction(ctx, r.db, func(ctx context.Context) error {
		cur, err := r.find(ctx, id)
		if err != nil {
			return err
		}

		if r.s.beforeDelete != nil {
			if err := r.s.beforeDelete(ctx, getDB(ctx, r.db), cur); err != nil {
				return err
			}
		}

		result := getDB(ctx, r.db).Delete(cur)
		if result.Error != nil {
			return apperrors.Wrapf(result.Error, "删除%s失败", r.s.kind)
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound(r.s.kind.String(), id)
		}
		return nil
	})
}

// List 分页查询，按ID升序
func (r *crudRepository[T, M]) List(ctx context.Context, page, pageSize int) ([]*T, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	if err := getDB(ctx, r.db).Model(new(M)).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrapf(err, "查询%s总数失败", r.s.kind)
	}

	var models []M
	err := r.query(ctx).
		Order("id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrapf(err, "查询%s列表失败", r.s.kind)
	}

	out := make([]*T, len(models))
	for i := range models {
		out[i] = r.s.toEntity(&models[i])
	}
	return out, total, nil
}

// =========================================
// 辅助函数
// =========================================

func (r *crudRepository[T, M]) query(ctx context.Context) *gorm.DB {
	q := getDB(ctx, r.db)
	for _, p := range r.s.preload {
		q = q.Preload(p)
	}
	return q
}

func (r *crudRepository[T, M]) find(ctx context.Context, id uint) (*M, error) {
	m := new(M)
	if err := r.query(ctx).First(m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(r.s.kind.String(), id)
		}
		return nil, apperrors.Wrapf(err, "查询%s失败", r.s.kind)
	}
	return m, nil
}

// touches attrs中是否有可写字段
func (r *crudRepository[T, M]) touches(attrs repository.Attributes) bool {
	for key := range attrs {
		if _, ok := r.s.fields[key]; ok {
			return true
		}
	}
	return false
}

// assign 把属性写入模型，返回被修改的列
// partial为false时（创建）返回值不使用
func (r *crudRepository[T, M]) assign(m *M, attrs repository.Attributes, partial bool) ([]string, error) {
	var columns []string
	for key, v := range attrs {
		f, ok := r.s.fields[key]
		if !ok {
			continue
		}
		if err := f.set(m, v); err != nil {
			return nil, err
		}
		if partial {
			columns = append(columns, f.column)
			columns = append(columns, f.extra...)
		}
	}
	return columns, nil
}

// checkReferences 检查引用的记录存在
// attrs为nil时检查全部引用（创建），否则只检查本次修改的键
func (r *crudRepository[T, M]) checkReferences(ctx context.Context, m *M, attrs repository.Attributes) error {
	for _, ref := range r.s.refs {
		if attrs != nil && !attrs.Has(ref.key) {
			continue
		}
		id := ref.value(m)
		if id == 0 {
			if ref.optional {
				continue
			}
			return referenceNotFound(ref.kind.String(), 0)
		}
		ok, err := exists(ctx, r.db, ref.model, id)
		if err != nil {
			return err
		}
		if !ok {
			return referenceNotFound(ref.kind.String(), id)
		}
	}
	return nil
}

func (r *crudRepository[T, M]) translate(err error, op string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if isDuplicateError(err) {
		return apperrors.Duplicate(r.s.kind.String(), err)
	}
	return apperrors.Wrapf(err, "%s%s失败", op, r.s.kind)
}
