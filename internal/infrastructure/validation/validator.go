// Package validation 仓储之前的校验与清洗
//
// 输入是JSON解码后的map，输出是只包含规则集中字段的repository.Attributes；
// 校验失败返回ValidationFailed，Fields的key是点分字段路径（如account.email）。
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/xiebiao/mediastore/internal/domain/repository"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// Mode 校验模式
type Mode int

const (
	// ModeCreate 必填字段必须出现
	ModeCreate Mode = iota
	// ModeUpdate 只校验出现的字段
	ModeUpdate
)

// Validator 按实体类型选择规则集进行校验
type Validator struct {
	validate *validator.Validate
	policy   *bluemonday.Policy
	rules    map[repository.Kind]RuleSet
}

// New 创建校验器，注册全部实体的规则集
func New() *Validator {
	return &Validator{
		validate: validator.New(),
		policy:   bluemonday.StrictPolicy(),
		rules:    defaultRules(),
	}
}

// Supports 是否有该实体的规则集
func (v *Validator) Supports(kind repository.Kind) bool {
	_, ok := v.rules[kind]
	return ok
}

// Validate 校验并清洗属性
// 未在规则集中的键被丢弃；失败时不会返回部分结果
func (v *Validator) Validate(kind repository.Kind, mode Mode, raw map[string]any) (repository.Attributes, error) {
	rs, ok := v.rules[kind]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeBadRequest, "%s 没有校验规则", kind)
	}

	errs := make(fieldErrors)
	attrs := v.apply(rs, mode, raw, "", errs)
	if len(errs) > 0 {
		return nil, apperrors.ValidationFailed(errs)
	}
	return attrs, nil
}

type fieldErrors map[string][]string

func (e fieldErrors) add(path, msg string) {
	e[path] = append(e[path], msg)
}

func (v *Validator) apply(rs RuleSet, mode Mode, raw map[string]any, prefix string, errs fieldErrors) repository.Attributes {
	attrs := make(repository.Attributes)

	for _, key := range rs.keys() {
		r := rs.Fields[key]
		if r.CreateOnly && mode == ModeUpdate {
			continue
		}
		path := prefix + key
		value, present := raw[key]

		if !present {
			if mode == ModeCreate && r.Required {
				errs.add(path, "不能为空")
			}
			continue
		}

		if value == nil {
			if r.Nullable {
				attrs[key] = nil
			} else {
				errs.add(path, "不能为空")
			}
			continue
		}

		clean, err := v.field(r, value)
		if err != nil {
			errs.add(path, err.Error())
			continue
		}
		attrs[key] = clean
	}

	for key, nested := range rs.Nested {
		path := prefix + key
		value, present := raw[key]
		if !present || value == nil {
			if mode == ModeCreate && nested.Required {
				errs.add(path, "不能为空")
			}
			continue
		}
		m, ok := value.(map[string]any)
		if !ok {
			errs.add(path, "必须是对象")
			continue
		}
		attrs[key] = v.apply(*nested.Rules, mode, m, path+".", errs)
	}

	return attrs
}

// field 转换类型并执行validator规则
func (v *Validator) field(r Rule, value any) (any, error) {
	switch r.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, errors.New("必须是字符串")
		}
		if !r.Raw {
			s = v.sanitize(s)
		}
		if err := v.check(s, r); err != nil {
			return nil, err
		}
		if s == "" && r.Nullable {
			return nil, nil
		}
		return s, nil

	case TypeID, TypeInt:
		n, ok := toInt64(value)
		if !ok {
			return nil, errors.New("必须是整数")
		}
		if r.Type == TypeID {
			if n < 1 {
				return nil, errors.New("必须是正整数")
			}
			if err := v.check(n, r); err != nil {
				return nil, err
			}
			return uint(n), nil
		}
		if err := v.check(n, r); err != nil {
			return nil, err
		}
		return n, nil

	case TypeObject:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, errors.New("必须是对象")
		}
		return m, nil

	default:
		return nil, errors.New("不支持的字段类型")
	}
}

// sanitize 去掉标签，保留文本中的&等字符
func (v *Validator) sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(v.policy.Sanitize(s)))
}

func (v *Validator) check(value any, r Rule) error {
	if r.Tag == "" {
		return nil
	}
	err := v.validate.Var(value, r.Tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.New(message(verrs[0]))
	}
	return err
}

// message 单条规则的提示信息
func message(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "email":
		return "必须是有效的邮箱地址"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("长度不能少于%s个字符", param)
		}
		return fmt.Sprintf("不能小于%s", param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("长度不能超过%s个字符", param)
		}
		return fmt.Sprintf("不能大于%s", param)
	case "gte":
		return fmt.Sprintf("不能小于%s", param)
	case "oneof":
		return fmt.Sprintf("必须是[%s]之一", param)
	case "iso3166_1_alpha2":
		return "必须是ISO 3166-1两位国家代码"
	case "alphanum":
		return "只能包含字母和数字"
	case "printascii":
		return "只能包含可打印ASCII字符"
	default:
		return fmt.Sprintf("不满足规则%s", fe.Tag())
	}
}

// toInt64 JSON数字可能是float64或json.Number，小数不接受
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func (rs RuleSet) keys() []string {
	keys := make([]string, 0, len(rs.Fields))
	for k := range rs.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
