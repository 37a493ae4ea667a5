package lyricdeck

import (
	"context"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/playlist"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/models"
)

type Service interface {
	BuildDeck(ctx context.Context, req DeckRequest) (*DeckResult, error)
	AddSong(ctx context.Context, in models.SongInput) (string, error)
	GetSongByID(songID string) (*models.Song, error)
	ListSongs() ([]models.Song, error)
	DeleteSong(songID string) error
	ListRuns(limit int) ([]models.Run, error)
	PreviewPlaylist(ctx context.Context, playlist string) (*playlist.Preview, error)
	Close() error
}

type Storage interface {
	RegisterSong(in models.SongInput) (string, error)
	UpdateLyrics(songID string, in models.SongInput) error
	AddAliases(songID string, aliases ...string) error
	FindSongByTitle(title string) (*models.Song, error)
	GetSongByID(songID string) (*models.Song, error)
	ListSongs() ([]models.Song, error)
	DeleteSongByID(songID string) error
	RecordRun(run *models.Run) error
	ListRuns(limit int) ([]models.Run, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
