package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/source"
)

func TestChoose(t *testing.T) {
	candidates := []source.DriveFile{{ID: "a", Name: "Way Maker"}, {ID: "b", Name: "Way Maker (KR)"}}

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"first", "1\n", 0},
		{"second", "2\n", 1},
		{"skip", "0\n", -1},
		{"empty skips", "\n", -1},
		{"retry after invalid", "7\nx\n2\n", 1},
		{"no trailing newline", "2", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := choose(bufio.NewReader(strings.NewReader(tt.input)), &out, "Way Maker", candidates)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "2. Way Maker (KR)")
		})
	}
}

func TestChooseEOF(t *testing.T) {
	_, err := choose(bufio.NewReader(strings.NewReader("")), &bytes.Buffer{}, "x", []source.DriveFile{{Name: "x"}})
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Way Maker", "길을 만드시는 분"}, splitList(" Way Maker, ,길을 만드시는 분 "))
	assert.Nil(t, splitList(""))
}

func TestLoadLyricsDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, text string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
	}
	write("Way Maker.en.txt", "You are here\n")
	write("Way Maker.ko.txt", "\xEF\xBB\xBF여기 계신 주\n")
	write("Holy Forever.txt", "A thousand generations\n천대의 세대가\n")
	write("notes.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.txt"), 0o755))

	lyrics, err := loadLyricsDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []source.UserLyrics{
		{Title: "Holy Forever", English: "A thousand generations\n천대의 세대가\n"},
		{Title: "Way Maker", English: "You are here\n", Korean: "여기 계신 주\n"},
	}, lyrics)
}

func TestLoadLyricsDirMissing(t *testing.T) {
	_, err := loadLyricsDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
