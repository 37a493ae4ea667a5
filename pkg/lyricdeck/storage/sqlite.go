package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "lyricdeck.sqlite3"
const errDBClientNil = "db client is nil"

// ErrNotFound is returned when a song or alias lookup has no row.
var ErrNotFound = errors.New("not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Song is a lyric library entry. Lyrics are stored as the raw text the
// parser reads, so labels and blank-line sections survive.
type Song struct {
	ID              string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title           string `json:"title"`
	NormalizedTitle string `gorm:"uniqueIndex:idx_song_title" json:"-"`
	EnglishLyrics   string `gorm:"type:text" json:"english_lyrics"`
	KoreanLyrics    string `gorm:"type:text" json:"korean_lyrics"`
	Origin          string `gorm:"index:idx_song_origin" json:"origin"`
	DriveFileID     string `gorm:"index:idx_drive_file" json:"drive_file_id"`
	Aliases         []SongAlias
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SongAlias is another title a song is known by, typically the English or
// Korean name when the library title is the other one.
type SongAlias struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	SongID          string `gorm:"type:varchar(36);index:idx_alias_song" json:"song_id"`
	Alias           string `json:"alias"`
	NormalizedAlias string `gorm:"uniqueIndex:idx_alias_unique" json:"-"`
}

// Run is one deck-building request and its outcome.
type Run struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Titles     string `gorm:"type:text" json:"titles"`
	Template   string `json:"template"`
	Status     string `gorm:"index:idx_run_status" json:"status"`
	Locator    string `json:"locator"`
	Slides     int    `json:"slides"`
	Failures   string `gorm:"type:text" json:"failures"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  time.Time
}

// Lyrics is the mutable content of a song row.
type Lyrics struct {
	English     string
	Korean      string
	Origin      string
	DriveFileID string
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("LYRICDECK_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !os.IsExist(err) {
		if filepath.Dir(dbPath) != "." {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Song{}, &SongAlias{}, &Run{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed")
}

// RegisterSong returns the ID of the song with this title, creating it when
// missing. An existing song keeps its lyrics; only empty fields are filled
// from lyrics.
func (c *DBClient) RegisterSong(title string, lyrics Lyrics) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}
	key := utils.NormalizeTitle(title)
	if key == "" {
		return "", fmt.Errorf("title %q has no letters or digits", title)
	}

	var song Song
	err := c.DB.Where("normalized_title = ?", key).First(&song).Error
	if err == nil {
		updates := map[string]any{}
		if song.EnglishLyrics == "" && lyrics.English != "" {
			updates["english_lyrics"] = lyrics.English
		}
		if song.KoreanLyrics == "" && lyrics.Korean != "" {
			updates["korean_lyrics"] = lyrics.Korean
		}
		if song.DriveFileID == "" && lyrics.DriveFileID != "" {
			updates["drive_file_id"] = lyrics.DriveFileID
		}
		if len(updates) > 0 {
			if err := c.DB.Model(&song).Updates(updates).Error; err != nil {
				return "", fmt.Errorf("filling song fields: %w", err)
			}
		}
		return song.ID, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying existing song: %w", err)
	}

	song = Song{
		ID:              utils.GenerateUUID(),
		Title:           strings.TrimSpace(title),
		NormalizedTitle: key,
		EnglishLyrics:   lyrics.English,
		KoreanLyrics:    lyrics.Korean,
		Origin:          lyrics.Origin,
		DriveFileID:     lyrics.DriveFileID,
	}
	if err := c.DB.Create(&song).Error; err != nil {
		if isUniqueViolation(err) {
			if fetchErr := c.DB.Where("normalized_title = ?", key).First(&song).Error; fetchErr != nil {
				return "", fmt.Errorf("fetching song after constraint violation: %w", fetchErr)
			}
			return song.ID, nil
		}
		return "", fmt.Errorf("creating song: %w", err)
	}

	return song.ID, nil
}

// UpdateLyrics overwrites the lyrics of an existing song.
func (c *DBClient) UpdateLyrics(songID string, lyrics Lyrics) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.Model(&Song{}).Where("id = ?", songID).Updates(map[string]any{
		"english_lyrics": lyrics.English,
		"korean_lyrics":  lyrics.Korean,
		"origin":         lyrics.Origin,
		"drive_file_id":  lyrics.DriveFileID,
	})
	if res.Error != nil {
		return fmt.Errorf("updating lyrics: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("song %s: %w", songID, ErrNotFound)
	}
	return nil
}

// AddAliases records alternative titles for a song. Aliases that already
// point at this song are ignored; an alias owned by another song is an error.
func (c *DBClient) AddAliases(songID string, aliases ...string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		for _, alias := range aliases {
			key := utils.NormalizeTitle(alias)
			if key == "" {
				continue
			}
			var existing SongAlias
			err := tx.Where("normalized_alias = ?", key).First(&existing).Error
			if err == nil {
				if existing.SongID != songID {
					return fmt.Errorf("alias %q already belongs to song %s", alias, existing.SongID)
				}
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("querying alias: %w", err)
			}
			if err := tx.Create(&SongAlias{SongID: songID, Alias: strings.TrimSpace(alias), NormalizedAlias: key}).Error; err != nil {
				return fmt.Errorf("creating alias %q: %w", alias, err)
			}
		}
		return nil
	})
}

// FindSongByTitle looks a song up by normalized title, then by alias.
func (c *DBClient) FindSongByTitle(title string) (*Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	key := utils.NormalizeTitle(title)
	if key == "" {
		return nil, fmt.Errorf("song %q: %w", title, ErrNotFound)
	}

	var song Song
	err := c.DB.Preload("Aliases").Where("normalized_title = ?", key).First(&song).Error
	if err == nil {
		return &song, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("querying song: %w", err)
	}

	var alias SongAlias
	if err := c.DB.Where("normalized_alias = ?", key).First(&alias).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("song %q: %w", title, ErrNotFound)
		}
		return nil, fmt.Errorf("querying alias: %w", err)
	}
	return c.GetSongByID(alias.SongID)
}

func (c *DBClient) GetSongByID(songID string) (*Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var song Song
	if err := c.DB.Preload("Aliases").Where("id = ?", songID).First(&song).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("song %s: %w", songID, ErrNotFound)
		}
		return nil, fmt.Errorf("querying song: %w", err)
	}
	return &song, nil
}

func (c *DBClient) ListSongs() ([]Song, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var songs []Song
	if err := c.DB.Preload("Aliases").Order("title").Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	return songs, nil
}

func (c *DBClient) CountSongs() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var n int64
	if err := c.DB.Model(&Song{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting songs: %w", err)
	}
	return n, nil
}

// DeleteSongByID removes a song and its aliases.
func (c *DBClient) DeleteSongByID(songID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ?", songID).Delete(&SongAlias{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", songID).Delete(&Song{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("song %s: %w", songID, ErrNotFound)
		}
		return nil
	})
}

// RecordRun stores a run, assigning an ID when it has none.
func (c *DBClient) RecordRun(run *Run) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if run.ID == "" {
		run.ID = utils.GenerateUUID()
	}
	if err := c.DB.Create(run).Error; err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (c *DBClient) ListRuns(limit int) ([]Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	q := c.DB.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}
