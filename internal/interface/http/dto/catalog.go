package dto

import (
	"github.com/xiebiao/mediastore/internal/domain/catalog"
)

type ArtistResponse struct {
	ID        uint   `json:"id" example:"1"`
	Name      string `json:"name" example:"Foobius Barius"`
	Profile   string `json:"profile"`
	CreatedAt string `json:"created_at" example:"2026-01-15 10:30:00"`
	UpdatedAt string `json:"updated_at" example:"2026-01-15 10:30:00"`
}

func NewArtistResponse(a *catalog.Artist) *ArtistResponse {
	return &ArtistResponse{
		ID:        a.ID,
		Name:      a.Name,
		Profile:   a.Profile,
		CreatedAt: FormatTime(a.CreatedAt),
		UpdatedAt: FormatTime(a.UpdatedAt),
	}
}

type AlbumResponse struct {
	ID        uint   `json:"id" example:"1"`
	Title     string `json:"title" example:"Greatest Hits"`
	ArtistID  uint   `json:"artist_id" example:"1"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewAlbumResponse(a *catalog.Album) *AlbumResponse {
	return &AlbumResponse{
		ID:        a.ID,
		Title:     a.Title,
		ArtistID:  a.ArtistID,
		CreatedAt: FormatTime(a.CreatedAt),
		UpdatedAt: FormatTime(a.UpdatedAt),
	}
}

type GenreResponse struct {
	ID        uint   `json:"id" example:"1"`
	Name      string `json:"name" example:"Jazz"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewGenreResponse(g *catalog.Genre) *GenreResponse {
	return &GenreResponse{
		ID:        g.ID,
		Name:      g.Name,
		CreatedAt: FormatTime(g.CreatedAt),
		UpdatedAt: FormatTime(g.UpdatedAt),
	}
}

type SongResponse struct {
	ID          uint   `json:"id" example:"1"`
	Title       string `json:"title" example:"Intro"`
	AlbumID     uint   `json:"album_id" example:"1"`
	TrackNumber uint   `json:"track_number" example:"1"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func NewSongResponse(s *catalog.Song) *SongResponse {
	return &SongResponse{
		ID:          s.ID,
		Title:       s.Title,
		AlbumID:     s.AlbumID,
		TrackNumber: s.TrackNumber,
		CreatedAt:   FormatTime(s.CreatedAt),
		UpdatedAt:   FormatTime(s.UpdatedAt),
	}
}

type FlacFileResponse struct {
	ID        uint   `json:"id" example:"1"`
	SongID    uint   `json:"song_id" example:"1"`
	Path      string `json:"path" example:"masters/0001.flac"`
	SizeBytes int64  `json:"size_bytes" example:"31457280"`
	Checksum  string `json:"checksum"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewFlacFileResponse(f *catalog.FlacFile) *FlacFileResponse {
	return &FlacFileResponse{
		ID:        f.ID,
		SongID:    f.SongID,
		Path:      f.Path,
		SizeBytes: f.SizeBytes,
		Checksum:  f.Checksum,
		CreatedAt: FormatTime(f.CreatedAt),
		UpdatedAt: FormatTime(f.UpdatedAt),
	}
}

type SkuResponse struct {
	ID        uint   `json:"id" example:"1"`
	SongID    uint   `json:"song_id" example:"1"`
	Code      string `json:"code" example:"SKU-0001"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewSkuResponse(s *catalog.Sku) *SkuResponse {
	return &SkuResponse{
		ID:        s.ID,
		SongID:    s.SongID,
		Code:      s.Code,
		CreatedAt: FormatTime(s.CreatedAt),
		UpdatedAt: FormatTime(s.UpdatedAt),
	}
}
