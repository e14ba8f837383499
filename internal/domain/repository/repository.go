// Package repository 定义所有实体共用的仓储契约
//
// 每种实体一个Repository[T]实现，由调用方在构造时显式注入，不做运行期按名字查找。
// 仓储只检查存储层约束（唯一、引用存在、删除是否破坏已成交权益），业务字段规则由校验层负责。
package repository

import (
	"context"
)

// Kind 实体类型标识，用于多态标签和错误信息
type Kind string

const (
	KindArtist       Kind = "artist"
	KindAlbum        Kind = "album"
	KindGenre        Kind = "genre"
	KindSong         Kind = "song"
	KindFlacFile     Kind = "flac_file"
	KindSku          Kind = "sku"
	KindUser         Kind = "user"
	KindAccount      Kind = "account"
	KindDigitalAsset Kind = "digital_asset"
	KindOrder        Kind = "order"
	KindProduct      Kind = "product"
	KindCart         Kind = "cart"
)

func (k Kind) String() string { return string(k) }

// Repository 通用仓储契约
type Repository[T any] interface {
	// Kind 返回实体类型标识
	Kind() Kind

	// FindByID 不存在时返回NotFound
	FindByID(ctx context.Context, id uint) (*T, error)

	// Create 唯一约束冲突返回Conflict；组合实体（User+Account）原子写入
	Create(ctx context.Context, attrs Attributes) (*T, error)

	// Update 局部更新：只修改attrs中出现的键；空attrs是合法的无操作更新，仍返回当前记录
	Update(ctx context.Context, id uint, attrs Attributes) (*T, error)

	// Delete 不存在返回NotFound；会破坏已成交权益时返回Conflict
	Delete(ctx context.Context, id uint) error

	// List 分页列表，按ID升序
	List(ctx context.Context, page, pageSize int) ([]*T, int64, error)
}
