package lyricdeck

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/source"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/storage"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/models"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/utils"
)

// ErrNotFound is returned for unknown song IDs.
var ErrNotFound = storage.ErrNotFound

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) RegisterSong(in models.SongInput) (string, error) {
	return s.db.RegisterSong(in.Title, storage.Lyrics{English: in.English, Korean: in.Korean, Origin: in.Origin})
}

func (s *storageAdapter) UpdateLyrics(songID string, in models.SongInput) error {
	return s.db.UpdateLyrics(songID, storage.Lyrics{English: in.English, Korean: in.Korean, Origin: in.Origin})
}

func (s *storageAdapter) AddAliases(songID string, aliases ...string) error {
	return s.db.AddAliases(songID, aliases...)
}

func (s *storageAdapter) FindSongByTitle(title string) (*models.Song, error) {
	dbSong, err := s.db.FindSongByTitle(title)
	if err != nil {
		return nil, err
	}
	song := toSong(*dbSong)
	return &song, nil
}

func (s *storageAdapter) GetSongByID(songID string) (*models.Song, error) {
	dbSong, err := s.db.GetSongByID(songID)
	if err != nil {
		return nil, err
	}
	song := toSong(*dbSong)
	return &song, nil
}

func (s *storageAdapter) ListSongs() ([]models.Song, error) {
	dbSongs, err := s.db.ListSongs()
	if err != nil {
		return nil, err
	}

	songs := make([]models.Song, len(dbSongs))
	for i, dbSong := range dbSongs {
		songs[i] = toSong(dbSong)
	}
	return songs, nil
}

func (s *storageAdapter) DeleteSongByID(songID string) error {
	return s.db.DeleteSongByID(songID)
}

func (s *storageAdapter) RecordRun(run *models.Run) error {
	failures, err := json.Marshal(run.Failures)
	if err != nil {
		return err
	}
	dbRun := &storage.Run{
		ID:         run.ID,
		Titles:     strings.Join(run.Titles, "\n"),
		Template:   run.Template,
		Status:     run.Status,
		Locator:    run.Locator,
		Slides:     run.Slides,
		Failures:   string(failures),
		DurationMs: run.DurationMs,
		CreatedAt:  run.CreatedAt,
	}
	if err := s.db.RecordRun(dbRun); err != nil {
		return err
	}
	run.ID, run.CreatedAt = dbRun.ID, dbRun.CreatedAt
	return nil
}

func (s *storageAdapter) ListRuns(limit int) ([]models.Run, error) {
	dbRuns, err := s.db.ListRuns(limit)
	if err != nil {
		return nil, err
	}

	runs := make([]models.Run, len(dbRuns))
	for i, r := range dbRuns {
		runs[i] = models.Run{
			ID:         r.ID,
			Template:   r.Template,
			Status:     r.Status,
			Locator:    r.Locator,
			Slides:     r.Slides,
			DurationMs: r.DurationMs,
			CreatedAt:  r.CreatedAt,
		}
		if r.Titles != "" {
			runs[i].Titles = strings.Split(r.Titles, "\n")
		}
		// Older rows may hold plain text; keep what decodes.
		_ = json.Unmarshal([]byte(r.Failures), &runs[i].Failures)
	}
	return runs, nil
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func toSong(dbSong storage.Song) models.Song {
	song := models.Song{
		ID:          dbSong.ID,
		Title:       dbSong.Title,
		English:     dbSong.EnglishLyrics,
		Korean:      dbSong.KoreanLyrics,
		Origin:      dbSong.Origin,
		DriveFileID: dbSong.DriveFileID,
		CreatedAt:   dbSong.CreatedAt,
		UpdatedAt:   dbSong.UpdatedAt,
	}
	for _, a := range dbSong.Aliases {
		song.Aliases = append(song.Aliases, a.Alias)
	}
	return song
}

// libraryAdapter exposes a Storage as the lyric library the source chain
// reads from and remembers into.
type libraryAdapter struct {
	store Storage
	log   Logger
}

// NewLibrary exposes store as a source.Library, for source chains built
// outside the service.
func NewLibrary(store Storage, log Logger) source.Library {
	return &libraryAdapter{store: store, log: log}
}

func (l *libraryAdapter) FindLyrics(title string) (*source.StoredLyrics, error) {
	song, err := l.store.FindSongByTitle(title)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &source.StoredLyrics{
		Title:       song.Title,
		English:     song.English,
		Korean:      song.Korean,
		Origin:      pipeline.Origin(song.Origin),
		DriveFileID: song.DriveFileID,
	}, nil
}

// SaveLyrics stores a song found elsewhere under its canonical title and
// records the requested title as an alias when the two differ.
func (l *libraryAdapter) SaveLyrics(title string, lyrics source.StoredLyrics) error {
	name := lyrics.Title
	if name == "" {
		name = title
	}
	id, err := l.store.RegisterSong(models.SongInput{
		Title:   name,
		English: lyrics.English,
		Korean:  lyrics.Korean,
		Origin:  string(lyrics.Origin),
	})
	if err != nil {
		return err
	}
	if utils.NormalizeTitle(title) != utils.NormalizeTitle(name) {
		if err := l.store.AddAliases(id, title); err != nil {
			l.log.Warnf("Could not alias %q to %q: %v", title, name, err)
		}
	}
	l.log.Debugf("Remembered %q (%s)", name, lyrics.Origin)
	return nil
}
