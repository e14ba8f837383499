package asset

import (
	"fmt"
	"strconv"
	"strings"
)

// Type 可售实体的多态标签
// 这是一个封闭集合：持久化时只允许下面列出的字符串，新增可售类型需要新增常量并在Registry中注册查找函数
type Type string

const (
	TypeAlbum Type = "album"
	TypeSong  Type = "song"
)

// TagSetVersion 标签集合版本，每次新增或废弃标签时递增
const TagSetVersion = 1

var knownTypes = []Type{TypeAlbum, TypeSong}

// Types 所有已知标签
func Types() []Type {
	out := make([]Type, len(knownTypes))
	copy(out, knownTypes)
	return out
}

// IsValid 是否为已知标签
func (t Type) IsValid() bool {
	for _, k := range knownTypes {
		if t == k {
			return true
		}
	}
	return false
}

func (t Type) String() string { return string(t) }

// ParseType 解析标签，未知标签返回ErrUnknownType
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrUnknownType.WithCause(fmt.Errorf("asset_type %q", s))
	}
	return t, nil
}

// Target 多态目标 {Album(id) | Song(id)}
type Target struct {
	Type Type
	ID   uint
}

// NewTarget 从原始标签和ID构造目标
func NewTarget(tag string, id uint) (Target, error) {
	t, err := ParseType(tag)
	if err != nil {
		return Target{}, err
	}
	if id == 0 {
		return Target{}, ErrInvalidTarget
	}
	return Target{Type: t, ID: id}, nil
}

// AlbumTarget 构造专辑目标
func AlbumTarget(id uint) Target { return Target{Type: TypeAlbum, ID: id} }

// SongTarget 构造单曲目标
func SongTarget(id uint) Target { return Target{Type: TypeSong, ID: id} }

// String 形如 album#3
func (t Target) String() string {
	return string(t.Type) + "#" + strconv.FormatUint(uint64(t.ID), 10)
}
