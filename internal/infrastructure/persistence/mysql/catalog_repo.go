package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/mediastore/internal/domain/asset"
	"github.com/xiebiao/mediastore/internal/domain/catalog"
	"github.com/xiebiao/mediastore/internal/domain/repository"
	apperrors "github.com/xiebiao/mediastore/pkg/errors"
)

// NewArtistRepository 艺人仓储
// 仍有专辑的艺人不能删除
func NewArtistRepository(db *gorm.DB) catalog.ArtistRepository {
	return newCRUDRepository(db, schema[catalog.Artist, ArtistModel]{
		kind: repository.KindArtist,
		fields: fields[ArtistModel]{
			"name":    stringField("name", func(m *ArtistModel) *string { return &m.Name }),
			"profile": stringField("profile", func(m *ArtistModel) *string { return &m.Profile }),
		},
		toEntity: toArtistEntity,
		beforeDelete: func(ctx context.Context, db *gorm.DB, cur *ArtistModel) error {
			var n int64
			if err := db.Model(&AlbumModel{}).Where("artist_id = ?", cur.ID).Count(&n).Error; err != nil {
				return apperrors.Wrap(err, "查询艺人专辑失败")
			}
			if n > 0 {
				return catalog.ErrArtistHasAlbums
			}
			return nil
		},
	})
}

// NewAlbumRepository 专辑仓储
// 有成交的专辑（含其单曲的成交）删除返回Conflict；未售出的专辑级联删除单曲、流派关联和数字资产
func NewAlbumRepository(db *gorm.DB) catalog.AlbumRepository {
	return newCRUDRepository(db, schema[catalog.Album, AlbumModel]{
		kind: repository.KindAlbum,
		fields: fields[AlbumModel]{
			"title":     stringField("title", func(m *AlbumModel) *string { return &m.Title }),
			"artist_id": uintField("artist_id", func(m *AlbumModel) *uint { return &m.ArtistID }),
		},
		refs: []reference[AlbumModel]{
			{key: "artist_id", kind: repository.KindArtist, model: &ArtistModel{}, value: func(m *AlbumModel) uint { return m.ArtistID }},
		},
		toEntity: toAlbumEntity,
		beforeDelete: func(ctx context.Context, db *gorm.DB, cur *AlbumModel) error {
			sold, err := albumCopiesSold(ctx, db, cur.ID)
			if err != nil {
				return err
			}
			if sold > 0 {
				return catalog.ErrAlbumHasSales
			}

			var songIDs []uint
			if err := db.Model(&SongModel{}).Where("album_id = ?", cur.ID).Pluck("id", &songIDs).Error; err != nil {
				return apperrors.Wrap(err, "查询专辑单曲失败")
			}
			for _, songID := range songIDs {
				if err := cascadeSong(ctx, db, songID); err != nil {
					return err
				}
			}
			if len(songIDs) > 0 {
				if err := db.Where("id IN ?", songIDs).Delete(&SongModel{}).Error; err != nil {
					return apperrors.Wrap(err, "删除专辑单曲失败")
				}
			}

			if err := db.Where("album_id = ?", cur.ID).Delete(&AlbumGenreModel{}).Error; err != nil {
				return apperrors.Wrap(err, "删除专辑流派关联失败")
			}
			return deleteAssetsOf(ctx, db, asset.AlbumTarget(cur.ID))
		},
	})
}

// NewGenreRepository 流派仓储，删除时移除中间表记录
func NewGenreRepository(db *gorm.DB) catalog.GenreRepository {
	return newCRUDRepository(db, schema[catalog.Genre, GenreModel]{
		kind: repository.KindGenre,
		fields: fields[GenreModel]{
			"name": stringField("name", func(m *GenreModel) *string { return &m.Name }),
		},
		toEntity: toGenreEntity,
		beforeDelete: func(ctx context.Context, db *gorm.DB, cur *GenreModel) error {
			if err := db.Where("genre_id = ?", cur.ID).Delete(&AlbumGenreModel{}).Error; err != nil {
				return apperrors.Wrap(err, "删除流派关联失败")
			}
			return nil
		},
	})
}

// NewSongRepository 单曲仓储
// 已售单曲删除返回Conflict；否则级联删除音频文件、SKU和数字资产
func NewSongRepository(db *gorm.DB) catalog.SongRepository {
	return newCRUDRepository(db, schema[catalog.Song, SongModel]{
		kind: repository.KindSong,
		fields: fields[SongModel]{
			"title":        stringField("title", func(m *SongModel) *string { return &m.Title }),
			"album_id":     uintField("album_id", func(m *SongModel) *uint { return &m.AlbumID }),
			"track_number": uintField("track_number", func(m *SongModel) *uint { return &m.TrackNumber }),
		},
		refs: []reference[SongModel]{
			{key: "album_id", kind: repository.KindAlbum, model: &AlbumModel{}, value: func(m *SongModel) uint { return m.AlbumID }},
		},
		toEntity: toSongEntity,
		beforeDelete: func(ctx context.Context, db *gorm.DB, cur *SongModel) error {
			sold, err := copiesSold(ctx, db, asset.SongTarget(cur.ID))
			if err != nil {
				return err
			}
			if sold > 0 {
				return catalog.ErrSongHasSales
			}
			return cascadeSong(ctx, db, cur.ID)
		},
	})
}

// NewFlacFileRepository 音频文件仓储，song_id唯一
// 已售单曲的音频文件不能删除或改挂到别的单曲
func NewFlacFileRepository(db *gorm.DB) catalog.FlacFileRepository {
	return newCRUDRepository(db, schema[catalog.FlacFile, FlacFileModel]{
		kind: repository.KindFlacFile,
		fields: fields[FlacFileModel]{
			"song_id":    uintField("song_id", func(m *FlacFileModel) *uint { return &m.SongID }),
			"path":       stringField("path", func(m *FlacFileModel) *string { return &m.Path }),
			"size_bytes": int64Field("size_bytes", func(m *FlacFileModel) *int64 { return &m.SizeBytes }),
			"checksum":   stringField("checksum", func(m *FlacFileModel) *string { return &m.Checksum }),
		},
		refs: []reference[FlacFileModel]{
			{key: "song_id", kind: repository.KindSong, model: &SongModel{}, value: func(m *FlacFileModel) uint { return m.SongID }},
		},
		toEntity: toFlacFileEntity,
		beforeUpdate: func(ctx context.Context, db *gorm.DB, cur *FlacFileModel, attrs repository.Attributes) error {
			if !attrs.Has("song_id") {
				return nil
			}
			return guardSoldSong(ctx, db, cur.SongID)
		},
		beforeDelete: func(ctx context.Context, db *gorm.DB, cur *FlacFileModel) error {
			return guardSoldSong(ctx, db, cur.SongID)
		},
	})
}

// NewSkuRepository SKU仓储，code与song_id都唯一
func NewSkuRepository(db *gorm.DB) catalog.SkuRepository {
	return newCRUDRepository(db, schema[catalog.Sku, SkuModel]{
		kind: repository.KindSku,
		fields: fields[SkuModel]{
			"song_id": uintField("song_id", func(m *SkuModel) *uint { return &m.SongID }),
			"code":    stringField("code", func(m *SkuModel) *string { return &m.Code }),
		},
		refs: []reference[SkuModel]{
			{key: "song_id", kind: repository.KindSong, model: &SongModel{}, value: func(m *SkuModel) uint { return m.SongID }},
		},
		toEntity: toSkuEntity,
		beforeUpdate: func(ctx context.Context, db *gorm.DB, cur *SkuModel, attrs repository.Attributes) error {
			if !attrs.Has("song_id") {
				return nil
			}
			return guardSoldSong(ctx, db, cur.SongID)
		},
		beforeDelete: func(ctx context.Context, db *gorm.DB, cur *SkuModel) error {
			return guardSoldSong(ctx, db, cur.SongID)
		},
	})
}

// SongSellability 单曲的可售状态
func SongSellability(ctx context.Context, db *gorm.DB, songID uint) (catalog.Sellability, error) {
	tx := getDB(ctx, db)
	var flac, sku int64
	if err := tx.Model(&FlacFileModel{}).Where("song_id = ?", songID).Count(&flac).Error; err != nil {
		return catalog.Sellability{}, apperrors.Wrap(err, "查询单曲音频文件失败")
	}
	if err := tx.Model(&SkuModel{}).Where("song_id = ?", songID).Count(&sku).Error; err != nil {
		return catalog.Sellability{}, apperrors.Wrap(err, "查询单曲SKU失败")
	}
	return catalog.Sellability{HasFlacFile: flac > 0, HasSku: sku > 0}, nil
}

// NewSongEligibility 单曲的可售检查，注册到asset.Registry
func NewSongEligibility(db *gorm.DB) asset.EligibilityCheck {
	return func(ctx context.Context, songID uint) error {
		s, err := SongSellability(ctx, db, songID)
		if err != nil {
			return err
		}
		return s.Err()
	}
}

func guardSoldSong(ctx context.Context, db *gorm.DB, songID uint) error {
	sold, err := copiesSold(ctx, db, asset.SongTarget(songID))
	if err != nil {
		return err
	}
	if sold > 0 {
		return catalog.ErrSongFileInUse
	}
	return nil
}

// cascadeSong 删除单曲的从属记录（不含单曲本身）
func cascadeSong(ctx context.Context, db *gorm.DB, songID uint) error {
	if err := db.Where("song_id = ?", songID).Delete(&FlacFileModel{}).Error; err != nil {
		return apperrors.Wrap(err, "删除单曲音频文件失败")
	}
	if err := db.Where("song_id = ?", songID).Delete(&SkuModel{}).Error; err != nil {
		return apperrors.Wrap(err, "删除单曲SKU失败")
	}
	return deleteAssetsOf(ctx, db, asset.SongTarget(songID))
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toArtistEntity(m *ArtistModel) *catalog.Artist {
	return &catalog.Artist{
		ID:        m.ID,
		Name:      m.Name,
		Profile:   m.Profile,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toAlbumEntity(m *AlbumModel) *catalog.Album {
	return &catalog.Album{
		ID:        m.ID,
		Title:     m.Title,
		ArtistID:  m.ArtistID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toGenreEntity(m *GenreModel) *catalog.Genre {
	return &catalog.Genre{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toSongEntity(m *SongModel) *catalog.Song {
	return &catalog.Song{
		ID:          m.ID,
		Title:       m.Title,
		AlbumID:     m.AlbumID,
		TrackNumber: m.TrackNumber,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toFlacFileEntity(m *FlacFileModel) *catalog.FlacFile {
	return &catalog.FlacFile{
		ID:        m.ID,
		SongID:    m.SongID,
		Path:      m.Path,
		SizeBytes: m.SizeBytes,
		Checksum:  m.Checksum,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toSkuEntity(m *SkuModel) *catalog.Sku {
	return &catalog.Sku{
		ID:        m.ID,
		SongID:    m.SongID,
		Code:      m.Code,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
