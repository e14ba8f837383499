// Package relation 实体间关联的显式解析
//
// 每个关联都有一个类型明确的访问方法，单值关联缺失时返回NotFound而不是nil。
// 多态关联（可售实体 → DigitalAsset）按(标签, ID)查询digital_assets表，没有外键。
package relation

import (
	"context"
	"fmt"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/catalog"
	"github.com/xiebiao/mediastore/internal/domain/order"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	"github.com/xiebiao/mediastore/internal/domain/user"
)

// Accessors 类型化的关联访问方法，由持久化层实现
type Accessors interface {
	ArtistOf(ctx context.Context, albumID uint) (*catalog.Artist, error)
	AlbumsOf(ctx context.Context, artistID uint) ([]*catalog.Album, error)
	SongsOf(ctx context.Context, albumID uint) ([]*catalog.Song, error)
	AlbumOf(ctx context.Context, songID uint) (*catalog.Album, error)
	GenresOf(ctx context.Context, albumID uint) ([]*catalog.Genre, error)
	AlbumsInGenre(ctx context.Context, genreID uint) ([]*catalog.Album, error)

	// FlacFileOf 1:1，单曲没有音频文件时返回NotFound
	FlacFileOf(ctx context.Context, songID uint) (*catalog.FlacFile, error)
	// SkuOf 1:1，单曲没有SKU时返回NotFound
	SkuOf(ctx context.Context, songID uint) (*catalog.Sku, error)
	SongOfFlacFile(ctx context.Context, flacFileID uint) (*catalog.Song, error)
	SongOfSku(ctx context.Context, skuID uint) (*catalog.Song, error)

	AccountOf(ctx context.Context, userID uint) (*user.Account, error)
	UserOf(ctx context.Context, accountID uint) (*user.User, error)

	// AssetsOf 多态关联：指向target的所有数字资产
	AssetsOf(ctx context.Context, target asset.Target) ([]*asset.DigitalAsset, error)
	// CopiesSold 同一查询，只保留被已支付订单中的订单行购买过的目标的资产
	CopiesSold(ctx context.Context, target asset.Target) ([]*asset.DigitalAsset, error)
	TargetOfAsset(ctx context.Context, assetID uint) (asset.Target, error)
	TargetOfProduct(ctx context.Context, productID uint) (asset.Target, error)

	ProductsOf(ctx context.Context, orderID uint) ([]*order.Product, error)
	ProductsInCart(ctx context.Context, cartID uint) ([]*order.Product, error)
}

// Name 关联名
type Name string

const (
	NameArtist     Name = "artist"
	NameAlbums     Name = "albums"
	NameAlbum      Name = "album"
	NameSongs      Name = "songs"
	NameSong       Name = "song"
	NameGenres     Name = "genres"
	NameFlacFile   Name = "flac_file"
	NameSku        Name = "sku"
	NameAccount    Name = "account"
	NameUser       Name = "user"
	NameAssets     Name = "assets"
	NameCopiesSold Name = "copies_sold"
	NameProducts   Name = "products"
	NameTarget     Name = "target"
)

// Related 动态解析的结果，One和Many只有一个有值
type Related struct {
	Kind repository.Kind
	Name Name
	One  any
	Many []any
}

// IsMany 是否为多值关联
func (r *Related) IsMany() bool { return r.Many != nil }

type resolveFunc func(ctx context.Context, r *Resolver, id uint) (*Related, error)

// Resolver 在类型化访问方法之上提供按名字解析关联的能力
type Resolver struct {
	Accessors
	registry *asset.Registry
	table    map[repository.Kind]map[Name]resolveFunc
}

// NewResolver 创建关联解析器
func NewResolver(accessors Accessors, registry *asset.Registry) *Resolver {
	return &Resolver{
		Accessors: accessors,
		registry:  registry,
		table:     declarations(),
	}
}

// Declared 某类实体声明的关联名
func (r *Resolver) Declared(kind repository.Kind) []Name {
	names := make([]Name, 0, len(r.table[kind]))
	for n := range r.table[kind] {
		names = append(names, n)
	}
	return names
}

// Related 按名字解析关联
// 未声明的关联返回ErrUnknownRelation
func (r *Resolver) Related(ctx context.Context, kind repository.Kind, id uint, name Name) (*Related, error) {
	fn, ok := r.table[kind][name]
	if !ok {
		return nil, ErrUnknownRelation.WithCause(fmt.Errorf("%s.%s", kind, name))
	}
	return fn(ctx, r, id)
}

// Target 解析多态目标实体
func (r *Resolver) Target(ctx context.Context, target asset.Target) (any, error) {
	return r.registry.Resolve(ctx, target)
}

func one[T any](name Name, kind repository.Kind, get func(context.Context, *Resolver, uint) (*T, error)) resolveFunc {
	return func(ctx context.Context, r *Resolver, id uint) (*Related, error) {
		v, err := get(ctx, r, id)
		if err != nil {
			return nil, err
		}
		return &Related{Kind: kind, Name: name, One: v}, nil
	}
}

func many[T any](name Name, kind repository.Kind, get func(context.Context, *Resolver, uint) ([]*T, error)) resolveFunc {
	return func(ctx context.Context, r *Resolver, id uint) (*Related, error) {
		vs, err := get(ctx, r, id)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(vs))
		for i, v := range vs {
			out[i] = v
		}
		return &Related{Kind: kind, Name: name, Many: out}, nil
	}
}

func targetOf(name Name, lookup func(context.Context, *Resolver, uint) (asset.Target, error)) resolveFunc {
	return func(ctx context.Context, r *Resolver, id uint) (*Related, error) {
		target, err := lookup(ctx, r, id)
		if err != nil {
			return nil, err
		}
		v, kind, err := r.registry.ResolveKind(ctx, target)
		if err != nil {
			return nil, err
		}
		return &Related{Kind: kind, Name: name, One: v}, nil
	}
}

func assetsOf(t asset.Type, sold bool) resolveFunc {
	name := NameAssets
	if sold {
		name = NameCopiesSold
	}
	return many(name, repository.KindDigitalAsset, func(ctx context.Context, r *Resolver, id uint) ([]*asset.DigitalAsset, error) {
		if sold {
			return r.CopiesSold(ctx, asset.Target{Type: t, ID: id})
		}
		return r.AssetsOf(ctx, asset.Target{Type: t, ID: id})
	})
}

func declarations() map[repository.Kind]map[Name]resolveFunc {
	return map[repository.Kind]map[Name]resolveFunc{
		repository.KindArtist: {
			NameAlbums: many(NameAlbums, repository.KindAlbum, func(ctx context.Context, r *Resolver, id uint) ([]*catalog.Album, error) {
				return r.AlbumsOf(ctx, id)
			}),
		},
		repository.KindAlbum: {
			NameArtist: one(NameArtist, repository.KindArtist, func(ctx context.Context, r *Resolver, id uint) (*catalog.Artist, error) {
				return r.ArtistOf(ctx, id)
			}),
			NameSongs: many(NameSongs, repository.KindSong, func(ctx context.Context, r *Resolver, id uint) ([]*catalog.Song, error) {
				return r.SongsOf(ctx, id)
			}),
			NameGenres: many(NameGenres, repository.KindGenre, func(ctx context.Context, r *Resolver, id uint) ([]*catalog.Genre, error) {
				return r.GenresOf(ctx, id)
			}),
			NameAssets:     assetsOf(asset.TypeAlbum, false),
			NameCopiesSold: assetsOf(asset.TypeAlbum, true),
		},
		repository.KindSong: {
			NameAlbum: one(NameAlbum, repository.KindAlbum, func(ctx context.Context, r *Resolver, id uint) (*catalog.Album, error) {
				return r.AlbumOf(ctx, id)
			}),
			NameFlacFile: one(NameFlacFile, repository.KindFlacFile, func(ctx context.Context, r *Resolver, id uint) (*catalog.FlacFile, error) {
				return r.FlacFileOf(ctx, id)
			}),
			NameSku: one(NameSku, repository.KindSku, func(ctx context.Context, r *Resolver, id uint) (*catalog.Sku, error) {
				return r.SkuOf(ctx, id)
			}),
			NameAssets:     assetsOf(asset.TypeSong, false),
			NameCopiesSold: assetsOf(asset.TypeSong, true),
		},
		repository.KindGenre: {
			NameAlbums: many(NameAlbums, repository.KindAlbum, func(ctx context.Context, r *Resolver, id uint) ([]*catalog.Album, error) {
				return r.AlbumsInGenre(ctx, id)
			}),
		},
		repository.KindFlacFile: {
			NameSong: one(NameSong, repository.KindSong, func(ctx context.Context, r *Resolver, id uint) (*catalog.Song, error) {
				return r.SongOfFlacFile(ctx, id)
			}),
		},
		repository.KindSku: {
			NameSong: one(NameSong, repository.KindSong, func(ctx context.Context, r *Resolver, id uint) (*catalog.Song, error) {
				return r.SongOfSku(ctx, id)
			}),
		},
		repository.KindUser: {
			NameAccount: one(NameAccount, repository.KindAccount, func(ctx context.Context, r *Resolver, id uint) (*user.Account, error) {
				return r.AccountOf(ctx, id)
			}),
		},
		repository.KindAccount: {
			NameUser: one(NameUser, repository.KindUser, func(ctx context.Context, r *Resolver, id uint) (*user.User, error) {
				return r.UserOf(ctx, id)
			}),
		},
		repository.KindOrder: {
			NameProducts: many(NameProducts, repository.KindProduct, func(ctx context.Context, r *Resolver, id uint) ([]*order.Product, error) {
				return r.ProductsOf(ctx, id)
			}),
		},
		repository.KindCart: {
			NameProducts: many(NameProducts, repository.KindProduct, func(ctx context.Context, r *Resolver, id uint) ([]*order.Product, error) {
				return r.ProductsInCart(ctx, id)
			}),
		},
		repository.KindDigitalAsset: {
			NameTarget: targetOf(NameTarget, func(ctx context.Context, r *Resolver, id uint) (asset.Target, error) {
				return r.TargetOfAsset(ctx, id)
			}),
		},
		repository.KindProduct: {
			NameTarget: targetOf(NameTarget, func(ctx context.Context, r *Resolver, id uint) (asset.Target, error) {
				return r.TargetOfProduct(ctx, id)
			}),
		},
	}
}
