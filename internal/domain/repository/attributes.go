package repository

// Attributes 经过校验层清洗后的字段集合，key为字段名
type Attributes map[string]any

// Has 是否包含某个键（值为nil也算包含，表示显式置空）
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Nested 取一层嵌套的属性集合，如用户注册时的account
func (a Attributes) Nested(key string) (Attributes, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, false
	}
	switch m := v.(type) {
	case Attributes:
		return m, true
	case map[string]any:
		return Attributes(m), true
	default:
		return nil, false
	}
}

// Without 返回去掉指定键的副本
func (a Attributes) Without(keys ...string) Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
