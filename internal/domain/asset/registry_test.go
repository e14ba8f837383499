package asset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/mediastore/internal/domain/repository"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

type album struct{ ID uint }

type albumFinder map[uint]*album

func (f albumFinder) FindByID(_ context.Context, id uint) (*album, error) {
	if a, ok := f[id]; ok {
		return a, nil
	}
	return nil, apperrors.NotFound("album", id)
}

func TestParseType(t *testing.T) {
	got, err := ParseType(" Album ")
	require.NoError(t, err)
	assert.Equal(t, TypeAlbum, got)

	_, err = ParseType("albun")
	assert.Contains(t, err.Error(), "albun")
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestNewTarget(t *testing.T) {
	target, err := NewTarget("song", 4)
	require.NoError(t, err)
	assert.Equal(t, SongTarget(4), target)
	assert.Equal(t, "song#4", target.String())

	_, err = NewTarget("song", 0)
	assert.Equal(t, ErrInvalidTarget, err)
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	RegisterRepository[album](r, TypeAlbum, repository.KindAlbum, albumFinder{1: {ID: 1}}, nil)
	ctx := context.Background()

	t.Run("已注册且存在", func(t *testing.T) {
		got, err := r.Resolve(ctx, AlbumTarget(1))
		require.NoError(t, err)
		assert.Equal(t, &album{ID: 1}, got)
	})

	t.Run("记录不存在", func(t *testing.T) {
		_, err := r.Resolve(ctx, AlbumTarget(2))
		assert.True(t, apperrors.IsNotFound(err))
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeReferenceNotFound))
	})

	t.Run("标签未注册", func(t *testing.T) {
		_, err := r.Resolve(ctx, SongTarget(1))
		assert.True(t, apperrors.IsBadRequest(err))
	})

	t.Run("同时返回Kind", func(t *testing.T) {
		got, kind, err := r.ResolveKind(ctx, AlbumTarget(1))
		require.NoError(t, err)
		assert.Equal(t, repository.KindAlbum, kind)
		assert.Equal(t, &album{ID: 1}, got)

		_, kind, err = r.ResolveKind(ctx, SongTarget(1))
		assert.Error(t, err)
		assert.Empty(t, kind)
	})
}

func TestRegistry_ResolveEligible(t *testing.T) {
	r := NewRegistry()
	RegisterRepository[album](r, TypeAlbum, repository.KindAlbum, albumFinder{1: {ID: 1}},
		func(context.Context, uint) error { return ErrTargetHasNoAssets })

	_, err := r.ResolveEligible(context.Background(), AlbumTarget(1))
	assert.Equal(t, ErrTargetHasNoAssets, err)
}

func TestRegistry_RegisterPanics(t *testing.T) {
	r := NewRegistry()
	lookup := func(context.Context, uint) (any, error) { return nil, nil }

	assert.Panics(t, func() { r.Register(Type("video"), Binding{Lookup: lookup}) })
	assert.Panics(t, func() { r.Register(TypeSong, Binding{}) })

	r.Register(TypeSong, Binding{Lookup: lookup})
	assert.Panics(t, func() { r.Register(TypeSong, Binding{Lookup: lookup}) })
	assert.Equal(t, []Type{TypeSong}, r.Registered())
}
