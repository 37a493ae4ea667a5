package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_lyricdeck.sqlite3")

	// Point the env-based constructor at the temp database
	t.Setenv("LYRICDECK_DB_PATH", dbPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return client, dbPath
}

func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client.DB == nil {
		t.Fatal("Expected non-nil GORM DB handle")
	}
	if client.db == nil {
		t.Fatal("Expected non-nil sql.DB handle")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

func TestNewDBClientWithCustomPath(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")

	client, err := NewDBClientWithPath(customPath)
	if err != nil {
		t.Fatalf("Failed to create DB with custom path: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at custom path %s", customPath)
	}
}

func TestRegisterSong(t *testing.T) {
	client, _ := setupTestDB(t)

	songID, err := client.RegisterSong("Amazing Grace", Lyrics{
		English: "Amazing grace\nhow sweet the sound",
		Korean:  "나 같은 죄인 살리신\n주 은혜 놀라워",
		Origin:  "user-provided",
	})
	if err != nil {
		t.Fatalf("Failed to register song: %v", err)
	}
	if songID == "" {
		t.Fatal("Expected non-empty song ID")
	}

	song, err := client.GetSongByID(songID)
	if err != nil {
		t.Fatalf("Failed to retrieve registered song: %v", err)
	}
	if song.Title != "Amazing Grace" {
		t.Errorf("Expected title 'Amazing Grace', got '%s'", song.Title)
	}
	if song.NormalizedTitle != "amazinggrace" {
		t.Errorf("Expected normalized title 'amazinggrace', got '%s'", song.NormalizedTitle)
	}
	if song.Origin != "user-provided" {
		t.Errorf("Expected origin 'user-provided', got '%s'", song.Origin)
	}
}

func TestRegisterSongIdempotent(t *testing.T) {
	client, _ := setupTestDB(t)

	id1, err := client.RegisterSong("How Great Thou Art", Lyrics{English: "O Lord my God"})
	if err != nil {
		t.Fatalf("Failed to register song first time: %v", err)
	}
	id2, err := client.RegisterSong("how great thou art!", Lyrics{English: "different text"})
	if err != nil {
		t.Fatalf("Failed to register song second time: %v", err)
	}
	if id1 != id2 {
		t.Errorf("Expected same song ID for duplicate registration, got %s and %s", id1, id2)
	}

	song, _ := client.GetSongByID(id1)
	if song.EnglishLyrics != "O Lord my God" {
		t.Errorf("Existing lyrics should be kept, got %q", song.EnglishLyrics)
	}

	var count int64
	client.DB.Model(&Song{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 song in database, found %d", count)
	}
}

func TestRegisterSongFillsMissingFields(t *testing.T) {
	client, _ := setupTestDB(t)

	id, _ := client.RegisterSong("Holy Holy Holy", Lyrics{English: "Holy, holy, holy"})
	if _, err := client.RegisterSong("Holy Holy Holy", Lyrics{Korean: "거룩 거룩 거룩", DriveFileID: "drive-1"}); err != nil {
		t.Fatalf("Failed to register song again: %v", err)
	}

	song, _ := client.GetSongByID(id)
	if song.KoreanLyrics != "거룩 거룩 거룩" {
		t.Errorf("Expected korean lyrics to be filled, got %q", song.KoreanLyrics)
	}
	if song.DriveFileID != "drive-1" {
		t.Errorf("Expected drive file ID to be filled, got %q", song.DriveFileID)
	}
	if song.EnglishLyrics != "Holy, holy, holy" {
		t.Errorf("English lyrics changed: %q", song.EnglishLyrics)
	}
}

func TestRegisterSongRejectsEmptyTitle(t *testing.T) {
	client, _ := setupTestDB(t)

	if _, err := client.RegisterSong(" -- ", Lyrics{}); err == nil {
		t.Error("Expected error for title without letters")
	}
}

func TestUpdateLyrics(t *testing.T) {
	client, _ := setupTestDB(t)

	id, _ := client.RegisterSong("Way Maker", Lyrics{English: "old", Korean: "옛"})
	if err := client.UpdateLyrics(id, Lyrics{English: "new", Korean: "새", Origin: "user-provided"}); err != nil {
		t.Fatalf("UpdateLyrics failed: %v", err)
	}
	song, _ := client.GetSongByID(id)
	if song.EnglishLyrics != "new" || song.KoreanLyrics != "새" {
		t.Errorf("Lyrics not replaced: %q / %q", song.EnglishLyrics, song.KoreanLyrics)
	}

	if err := client.UpdateLyrics("missing", Lyrics{English: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFindSongByTitleAndAlias(t *testing.T) {
	client, _ := setupTestDB(t)

	id, _ := client.RegisterSong("Amazing Grace", Lyrics{English: "Amazing grace"})
	if err := client.AddAliases(id, "나 같은 죄인 살리신", "Amazing Grace (My Chains Are Gone)"); err != nil {
		t.Fatalf("AddAliases failed: %v", err)
	}
	// Re-adding is a no-op
	if err := client.AddAliases(id, "나 같은 죄인 살리신"); err != nil {
		t.Fatalf("AddAliases second time failed: %v", err)
	}

	for _, title := range []string{"amazing grace", "나 같은 죄인  살리신", "Amazing Grace - My Chains Are Gone"} {
		song, err := client.FindSongByTitle(title)
		if err != nil {
			t.Fatalf("FindSongByTitle(%q) failed: %v", title, err)
		}
		if song.ID != id {
			t.Errorf("FindSongByTitle(%q) = %s, want %s", title, song.ID, id)
		}
		if len(song.Aliases) != 2 {
			t.Errorf("Expected 2 aliases preloaded, got %d", len(song.Aliases))
		}
	}

	if _, err := client.FindSongByTitle("Unknown Song"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAddAliasOwnedByAnotherSong(t *testing.T) {
	client, _ := setupTestDB(t)

	a, _ := client.RegisterSong("Song A", Lyrics{})
	b, _ := client.RegisterSong("Song B", Lyrics{})
	if err := client.AddAliases(a, "shared"); err != nil {
		t.Fatalf("AddAliases failed: %v", err)
	}
	if err := client.AddAliases(b, "shared"); err == nil {
		t.Error("Expected error when alias belongs to another song")
	}
}

func TestDeleteSongByID(t *testing.T) {
	client, _ := setupTestDB(t)

	id, _ := client.RegisterSong("To Delete", Lyrics{English: "bye"})
	client.AddAliases(id, "삭제")

	if err := client.DeleteSongByID(id); err != nil {
		t.Fatalf("Failed to delete song: %v", err)
	}
	if _, err := client.GetSongByID(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected song to be deleted, got %v", err)
	}

	var aliasCount int64
	client.DB.Model(&SongAlias{}).Where("song_id = ?", id).Count(&aliasCount)
	if aliasCount != 0 {
		t.Errorf("Expected 0 aliases after song deletion, found %d", aliasCount)
	}

	if err := client.DeleteSongByID(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Deleting twice should report ErrNotFound, got %v", err)
	}
}

func TestListAndCountSongs(t *testing.T) {
	client, _ := setupTestDB(t)

	client.RegisterSong("Song C", Lyrics{})
	client.RegisterSong("Song A", Lyrics{})
	client.RegisterSong("Song B", Lyrics{})

	songs, err := client.ListSongs()
	if err != nil {
		t.Fatalf("ListSongs failed: %v", err)
	}
	if len(songs) != 3 {
		t.Fatalf("Expected 3 songs, got %d", len(songs))
	}
	if songs[0].Title != "Song A" || songs[2].Title != "Song C" {
		t.Errorf("Expected songs ordered by title, got %s..%s", songs[0].Title, songs[2].Title)
	}

	n, err := client.CountSongs()
	if err != nil || n != 3 {
		t.Errorf("CountSongs = %d, %v; want 3", n, err)
	}
}

func TestRecordAndListRuns(t *testing.T) {
	client, _ := setupTestDB(t)

	older := &Run{Titles: "A", Status: "empty", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &Run{Titles: "A\nB", Status: "rendered", Locator: "https://example/1", Slides: 4}
	for _, r := range []*Run{older, newer} {
		if err := client.RecordRun(r); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
		if r.ID == "" {
			t.Error("Expected RecordRun to assign an ID")
		}
	}

	runs, err := client.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != newer.ID {
		t.Fatalf("Expected newest run first, got %+v", runs)
	}

	limited, _ := client.ListRuns(1)
	if len(limited) != 1 {
		t.Errorf("Expected 1 run with limit, got %d", len(limited))
	}
}

func TestClose(t *testing.T) {
	client, err := NewDBClientWithPath(filepath.Join(t.TempDir(), "close_test.sqlite3"))
	if err != nil {
		t.Fatalf("Failed to create DB client: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Failed to close DB connection: %v", err)
	}
	// Closing again should be safe
	if err := client.Close(); err != nil {
		t.Errorf("Second close should not error: %v", err)
	}
}

func TestNilClientMethods(t *testing.T) {
	var client *DBClient

	if _, err := client.RegisterSong("Test", Lyrics{}); err == nil {
		t.Error("Expected error for nil client in RegisterSong")
	}
	if err := client.DeleteSongByID("x"); err == nil {
		t.Error("Expected error for nil client in DeleteSongByID")
	}
	if _, err := client.FindSongByTitle("x"); err == nil {
		t.Error("Expected error for nil client in FindSongByTitle")
	}
	if err := client.RecordRun(&Run{}); err == nil {
		t.Error("Expected error for nil client in RecordRun")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client should return nil, got: %v", err)
	}
}

func TestConcurrentRegister(t *testing.T) {
	client, _ := setupTestDB(t)

	var wg sync.WaitGroup
	ids := make([]string, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			id, err := client.RegisterSong("Concurrent Song", Lyrics{})
			if err != nil {
				t.Errorf("Failed to register song concurrently: %v", err)
			}
			ids[idx] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Errorf("Expected one ID for concurrent registrations, got %v", ids)
			break
		}
	}
	var count int64
	client.DB.Model(&Song{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 song after concurrent operations, found %d", count)
	}
}
