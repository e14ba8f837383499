package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributes_Nested(t *testing.T) {
	attrs := Attributes{
		"username": "FoobiusBarius",
		"account":  map[string]any{"email": "foo@example.com"},
		"empty":    nil,
		"scalar":   "x",
	}

	account, ok := attrs.Nested("account")
	assert.True(t, ok)
	assert.Equal(t, "foo@example.com", account["email"])

	_, ok = attrs.Nested("empty")
	assert.False(t, ok)
	_, ok = attrs.Nested("scalar")
	assert.False(t, ok)
	_, ok = attrs.Nested("missing")
	assert.False(t, ok)
}

func TestAttributes_Without(t *testing.T) {
	attrs := Attributes{"a": 1, "b": 2}
	out := attrs.Without("b")

	assert.Equal(t, Attributes{"a": 1}, out)
	assert.True(t, attrs.Has("b"), "原集合不应被修改")
}
