package render

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/utils"
)

// FileRenderer writes the deck as a JSON list of {"english","korean"}
// objects. The locator is the file path.
type FileRenderer struct {
	Dir string
	now func() time.Time
}

func NewFileRenderer(dir string) *FileRenderer {
	return &FileRenderer{Dir: dir, now: time.Now}
}

func (r *FileRenderer) Render(ctx context.Context, deck pipeline.Deck, tmpl pipeline.Template) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if deck == nil {
		deck = pipeline.Deck{}
	}
	data, err := json.MarshalIndent(deck, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding deck: %w", err)
	}

	path := filepath.Join(r.Dir, fmt.Sprintf("%s-%s.json", r.now().Format("20060102-150405"), tmpl))
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing deck: %w", err)
	}
	return path, nil
}
