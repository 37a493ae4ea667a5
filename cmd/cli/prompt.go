package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/source"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/utils"
)

var stdin = bufio.NewReader(os.Stdin)

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptAuthCode(authURL string) (string, error) {
	fmt.Println("\n🔑 Open this link in your browser and authorize LyricDeck:")
	fmt.Printf("\n   %s\n\n", authURL)
	fmt.Print("Paste the authorization code: ")
	code, err := readLine(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	return code, nil
}

func chooseDriveFile(title string, candidates []source.DriveFile) (int, error) {
	return choose(stdin, os.Stdout, title, candidates)
}

// choose lists the candidates and reads a 1-based pick. An empty answer or
// 0 skips the song.
func choose(r *bufio.Reader, w io.Writer, title string, candidates []source.DriveFile) (int, error) {
	fmt.Fprintf(w, "\n📁 Several Drive files match \"%s\":\n", title)
	for i, c := range candidates {
		fmt.Fprintf(w, "  %d. %s\n", i+1, c.Name)
	}
	for {
		fmt.Fprintf(w, "Choose 1-%d (0 to skip): ", len(candidates))
		answer, err := readLine(r)
		if err != nil {
			return -1, err
		}
		if answer == "" {
			return -1, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 0 && n <= len(candidates) {
			return n - 1, nil
		}
		fmt.Fprintln(w, "Invalid choice.")
	}
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	answer, err := readLine(stdin)
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadLyricsDir reads lyric files from dir. "<title>.txt" holds both
// languages; "<title>.en.txt" and "<title>.ko.txt" hold one each.
func loadLyricsDir(dir string) ([]source.UserLyrics, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	byTitle := make(map[string]*source.UserLyrics)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".txt") {
			continue
		}
		text, err := utils.ReadTextFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		base := strings.TrimSuffix(name, filepath.Ext(name))
		lang := strings.ToLower(filepath.Ext(base))
		if lang == ".en" || lang == ".ko" {
			base = strings.TrimSuffix(base, filepath.Ext(base))
		}
		entry, ok := byTitle[base]
		if !ok {
			entry = &source.UserLyrics{Title: base}
			byTitle[base] = entry
		}
		switch lang {
		case ".ko":
			entry.Korean = text
		default:
			entry.English = text
		}
	}

	out := make([]source.UserLyrics, 0, len(byTitle))
	for _, entry := range byTitle {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}
