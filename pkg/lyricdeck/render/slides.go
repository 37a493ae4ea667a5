package render

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/slides/v1"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/utils"
)

const (
	// DefaultTargetFolderID is where generated presentations are filed.
	DefaultTargetFolderID = "1PoqUg00k3BA1HOG1Nn4HyqpUhvdUT-YX"

	// DefaultInsertionIndex keeps the template's opening slides first.
	DefaultInsertionIndex = 5

	presentationURL = "https://docs.google.com/presentation/d/%s/edit"
)

// DefaultTemplateIDs maps each service template to its Slides presentation.
var DefaultTemplateIDs = map[pipeline.Template]string{
	pipeline.TemplateSunday: "1FCivH5ECj72APlWDdsu_3BoHZN9LWbBl",
	pipeline.TemplateFriday: "1LevZxXZWhVzD06DYpSTbddw9-t0RlU4M",
}

// PresentationURL is the edit link for a presentation ID.
func PresentationURL(id string) string {
	return fmt.Sprintf(presentationURL, id)
}

// SlidesRenderer copies a template presentation and appends one slide per
// pair of the deck.
type SlidesRenderer struct {
	files          *drive.FilesService
	presentations  *slides.PresentationsService
	templates      map[pipeline.Template]string
	folderID       string
	insertionIndex int64
	now            func() time.Time
	newID          func(prefix string) string
	log            pipeline.Logger
}

type SlidesOption func(*SlidesRenderer)

func WithTemplates(ids map[pipeline.Template]string) SlidesOption {
	return func(r *SlidesRenderer) { r.templates = ids }
}

func WithTargetFolder(id string) SlidesOption {
	return func(r *SlidesRenderer) { r.folderID = id }
}

func WithInsertionIndex(i int64) SlidesOption {
	return func(r *SlidesRenderer) { r.insertionIndex = i }
}

func WithLogger(log pipeline.Logger) SlidesOption {
	return func(r *SlidesRenderer) { r.log = log }
}

func withClock(now func() time.Time) SlidesOption {
	return func(r *SlidesRenderer) { r.now = now }
}

func NewSlidesRenderer(driveSvc *drive.Service, slidesSvc *slides.Service, opts ...SlidesOption) *SlidesRenderer {
	r := &SlidesRenderer{
		files:          driveSvc.Files,
		presentations:  slidesSvc.Presentations,
		templates:      DefaultTemplateIDs,
		folderID:       DefaultTargetFolderID,
		insertionIndex: DefaultInsertionIndex,
		now:            time.Now,
		newID:          utils.NewObjectID,
		log:            nopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render creates the presentation and returns its edit URL. If anything
// fails after the template was copied, the copy is deleted.
func (r *SlidesRenderer) Render(ctx context.Context, deck pipeline.Deck, tmpl pipeline.Template) (string, error) {
	templateID, ok := r.templates[tmpl]
	if !ok {
		return "", fmt.Errorf("no presentation configured for template %q", tmpl)
	}

	id, err := r.copyTemplate(ctx, templateID)
	if err != nil {
		return "", err
	}
	r.log.Infof("Copied %s template to %s", tmpl, id)

	if err := r.fill(ctx, id, deck); err != nil {
		// ctx may already be cancelled; cleanup gets its own deadline.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if derr := r.files.Delete(id).Context(cleanupCtx).Do(); derr != nil {
			r.log.Warnf("Could not delete partial presentation %s: %v", id, derr)
		}
		return "", err
	}
	return PresentationURL(id), nil
}

func (r *SlidesRenderer) copyTemplate(ctx context.Context, templateID string) (string, error) {
	meta := &drive.File{Name: r.now().Format("20060102-150405")}
	if r.folderID != "" {
		meta.Parents = []string{r.folderID}
	}
	file, err := r.files.Copy(templateID, meta).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("copying template %s: %w", templateID, err)
	}
	return file.Id, nil
}

func (r *SlidesRenderer) fill(ctx context.Context, id string, deck pipeline.Deck) error {
	pres, err := r.presentations.Get(id).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading presentation %s: %w", id, err)
	}
	if pres.PageSize == nil {
		return fmt.Errorf("presentation %s has no page size", id)
	}

	layout := Layout{
		PageWidth:      points(pres.PageSize.Width),
		PageHeight:     points(pres.PageSize.Height),
		InsertionIndex: min(r.insertionIndex, int64(len(pres.Slides))),
	}
	reqs, ids := BuildSlideRequests(deck, layout, r.newID)
	if len(reqs) == 0 {
		return nil
	}
	if err := r.batch(ctx, id, reqs); err != nil {
		return err
	}

	after, err := r.presentations.Get(id).
		Fields("slides(objectId,pageElements(objectId))").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("re-reading presentation %s: %w", id, err)
	}
	if extra := leftovers(after, ids); len(extra) > 0 {
		r.log.Debugf("Removing %d placeholder elements from %s", len(extra), id)
		return r.batch(ctx, id, extra)
	}
	return nil
}

func (r *SlidesRenderer) batch(ctx context.Context, id string, reqs []*slides.Request) error {
	_, err := r.presentations.BatchUpdate(id, &slides.BatchUpdatePresentationRequest{Requests: reqs}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("updating presentation %s: %w", id, err)
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}
