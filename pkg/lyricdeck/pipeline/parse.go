package pipeline

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	repeatMarker  = regexp.MustCompile(`(?i)\(\s*(?:[x×]\s*\d+|\d+\s*[x×]|반복)\s*\)|\s+[x×]\d+\s*$`)
	listNumbering = regexp.MustCompile(`^\d+[.)]\s+`)
	labelTrim     = regexp.MustCompile(`[\s\d.:\-_\[\]\(\)]+`)
)

var sectionLabels = map[string]Role{
	"verse":     RoleVerse,
	"절":         RoleVerse,
	"chorus":    RoleChorus,
	"refrain":   RoleChorus,
	"후렴":        RoleChorus,
	"코러스":       RoleChorus,
	"prechorus": RolePreChorus,
	"프리코러스":     RolePreChorus,
	"bridge":    RoleBridge,
	"브릿지":       RoleBridge,
	"브리지":       RoleBridge,
	"tag":       RoleTag,
	"intro":     RoleIntro,
	"interlude": RoleIntro,
	"전주":        RoleIntro,
	"간주":        RoleIntro,
	"outro":     RoleEnding,
	"ending":    RoleEnding,
	"엔딩":        RoleEnding,
	"후주":        RoleEnding,
}

// sectionLabel reports whether line is a structural label such as
// "[Verse 1]", "Chorus:" or "후렴".
func sectionLabel(line string) (Role, bool) {
	if len([]rune(line)) > 24 {
		return RoleUnknown, false
	}
	key := strings.ToLower(labelTrim.ReplaceAllString(line, ""))
	role, ok := sectionLabels[key]
	return role, ok
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func hasHangul(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = repeatMarker.ReplaceAllString(line, "")
	line = listNumbering.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// ParseTrack splits raw lyric text for one language into lines.
//
// Blank lines and section labels start a new section; labels set the role of
// the section that follows and are not emitted. Repeat markers like "(x2)"
// and list numbering are stripped, and lines with no letters (page numbers,
// separators) are dropped.
func ParseTrack(text string, lang Language) []LyricLine {
	var (
		lines   []LyricLine
		section int
		role    = RoleUnknown
		open    bool
	)

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			if open {
				section++
				open = false
				role = RoleUnknown
			}
			continue
		}
		if r, ok := sectionLabel(trimmed); ok {
			if open {
				section++
				open = false
			}
			role = r
			continue
		}

		line := cleanLine(trimmed)
		if !hasLetter(line) {
			continue
		}
		lines = append(lines, LyricLine{
			Text:     line,
			Language: lang,
			Role:     role,
			Section:  section,
			Index:    len(lines),
		})
		open = true
	}
	return lines
}

// SplitBilingual separates interleaved English/Korean lyric text by script.
// Lines containing Hangul go to the Korean output, other lines with letters
// to the English output. Blank lines and section labels are copied to both
// so the two outputs keep the same section layout.
func SplitBilingual(text string) (english, korean string) {
	var en, ko strings.Builder
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(raw)
		if _, ok := sectionLabel(trimmed); ok || trimmed == "" {
			en.WriteString(trimmed + "\n")
			ko.WriteString(trimmed + "\n")
			continue
		}
		switch {
		case hasHangul(trimmed):
			ko.WriteString(trimmed + "\n")
		case hasLetter(trimmed):
			en.WriteString(trimmed + "\n")
		}
	}
	return en.String(), ko.String()
}

// IsBilingual reports whether text has both Hangul and Latin lyric lines.
func IsBilingual(text string) bool {
	var sawKorean, sawEnglish bool
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if _, ok := sectionLabel(line); ok {
			continue
		}
		if hasHangul(line) {
			sawKorean = true
		} else if hasLetter(line) {
			sawEnglish = true
		}
		if sawKorean && sawEnglish {
			return true
		}
	}
	return false
}

// FormatTrack renders lines back to text: one line per row, a blank line
// between sections and a "[Role]" label where a section has a known role.
// For lines produced by ParseTrack, ParseTrack(FormatTrack(lines)) returns
// the same lines.
func FormatTrack(lines []LyricLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i == 0 || crossesBoundary(lines[i-1], l) {
			if i > 0 {
				b.WriteString("\n\n")
			}
			if l.Role != RoleUnknown {
				b.WriteString("[" + roleLabel(l.Role) + "]\n")
			}
		} else {
			b.WriteString("\n")
		}
		b.WriteString(l.Text)
	}
	return b.String()
}

func roleLabel(r Role) string {
	parts := strings.Split(string(r), "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}

// TracksFromText parses a single lyric text that may hold one or both
// languages. Interleaved text is split by script; single-language text fills
// only the matching track.
func TracksFromText(text string) (english, korean []LyricLine) {
	if IsBilingual(text) {
		en, ko := SplitBilingual(text)
		return ParseTrack(en, English), ParseTrack(ko, Korean)
	}
	if hasHangul(text) {
		return nil, ParseTrack(text, Korean)
	}
	return ParseTrack(text, English), nil
}
