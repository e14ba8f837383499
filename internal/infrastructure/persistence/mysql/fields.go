package mysql

import (
	"encoding/json"
	"math"
	"strconv"

	"gorm.io/datatypes"

	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// field 可写字段：属性键 → 列 + 赋值函数
// 不在字段表里的属性键一律忽略
type field[M any] struct {
	column string
	extra  []string // 赋值时一并修改的列，如status变更时的paid_at
	set    func(m *M, v any) error
}

type fields[M any] map[string]field[M]

func invalidAttribute(key string, v any) *apperrors.AppError {
	return apperrors.Newf(apperrors.ErrCodeInvalidAttribute, "属性%s的值类型错误: %T", key, v)
}

// scalar 仓储接受的标量类型
type scalar interface {
	string | uint | int64
}

// coerce 把JSON解码后的值转换成列类型
// 数字可能是float64、json.Number或整数；小数和负数不能转换成uint
func coerce[V scalar](key string, v any) (V, error) {
	var zero V
	var out any
	switch any(zero).(type) {
	case string:
		s, ok := v.(string)
		if !ok {
			return zero, invalidAttribute(key, v)
		}
		out = s
	case uint:
		n, ok := toInt64(v)
		if !ok || n < 0 {
			return zero, invalidAttribute(key, v)
		}
		out = uint(n)
	case int64:
		n, ok := toInt64(v)
		if !ok {
			return zero, invalidAttribute(key, v)
		}
		out = n
	}
	return out.(V), nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func stringField[M any](column string, ptr func(*M) *string) field[M] {
	return field[M]{column: column, set: func(m *M, v any) error {
		s, err := coerce[string](column, v)
		if err != nil {
			return err
		}
		*ptr(m) = s
		return nil
	}}
}

// nullableStringField nil表示显式置空
func nullableStringField[M any](column string, ptr func(*M) **string) field[M] {
	return field[M]{column: column, set: func(m *M, v any) error {
		if v == nil {
			*ptr(m) = nil
			return nil
		}
		s, err := coerce[string](column, v)
		if err != nil {
			return err
		}
		*ptr(m) = &s
		return nil
	}}
}

func uintField[M any](column string, ptr func(*M) *uint) field[M] {
	return field[M]{column: column, set: func(m *M, v any) error {
		n, err := coerce[uint](column, v)
		if err != nil {
			return err
		}
		*ptr(m) = n
		return nil
	}}
}

// nullableUintField 0或nil都表示置空
func nullableUintField[M any](column string, ptr func(*M) **uint) field[M] {
	return field[M]{column: column, set: func(m *M, v any) error {
		if v == nil {
			*ptr(m) = nil
			return nil
		}
		n, err := coerce[uint](column, v)
		if err != nil {
			return err
		}
		if n == 0 {
			*ptr(m) = nil
			return nil
		}
		*ptr(m) = &n
		return nil
	}}
}

func int64Field[M any](column string, ptr func(*M) *int64) field[M] {
	return field[M]{column: column, set: func(m *M, v any) error {
		n, err := coerce[int64](column, v)
		if err != nil {
			return err
		}
		*ptr(m) = n
		return nil
	}}
}

func jsonMapField[M any](column string, ptr func(*M) *datatypes.JSONMap) field[M] {
	return field[M]{column: column, set: func(m *M, v any) error {
		switch data := v.(type) {
		case nil:
			*ptr(m) = nil
		case map[string]any:
			*ptr(m) = datatypes.JSONMap(data)
		case datatypes.JSONMap:
			*ptr(m) = data
		default:
			return invalidAttribute(column, v)
		}
		return nil
	}}
}
