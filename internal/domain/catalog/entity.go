package catalog

import (
	"time"
)

// Artist 艺人
type Artist struct {
	ID        uint
	Name      string
	Profile   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Album 专辑
// 必须属于一个已存在的Artist；可以作为DigitalAsset的多态目标
type Album struct {
	ID        uint
	Title     string
	ArtistID  uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Genre 流派，与Album多对多
type Genre struct {
	ID        uint
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Song 单曲
// 同时拥有FlacFile和Sku之后才可售卖
type Song struct {
	ID          uint
	Title       string
	AlbumID     uint
	TrackNumber uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FlacFile 单曲对应的无损音频文件（1:1）
// Path只是文件引用，文件本身的存储与分发不在本服务内
type FlacFile struct {
	ID        uint
	SongID    uint
	Path      string
	SizeBytes int64
	Checksum  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sku 单曲的销售编码（1:1），Code全目录唯一
type Sku struct {
	ID        uint
	SongID    uint
	Code      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sellability 单曲可售状态
type Sellability struct {
	HasFlacFile bool
	HasSku      bool
}

// Sellable 同时有FlacFile和Sku才可售
func (s Sellability) Sellable() bool {
	return s.HasFlacFile && s.HasSku
}

// Err 返回不可售的原因，可售时返回nil
func (s Sellability) Err() error {
	switch {
	case !s.HasFlacFile && !s.HasSku:
		return ErrSongNotSellable
	case !s.HasFlacFile:
		return ErrSongMissingFlacFile
	case !s.HasSku:
		return ErrSongMissingSku
	default:
		return nil
	}
}
