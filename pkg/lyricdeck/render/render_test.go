package render

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/slides/v1"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
)

func counterIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s_%d", prefix, n)
	}
}

func TestBuildSlideRequests(t *testing.T) {
	deck := pipeline.Deck{
		{English: "Amazing grace\nhow sweet", Korean: "나 같은 죄인\n주 은혜"},
		{English: "I once was lost", Korean: "잃었던 생명"},
	}
	reqs, ids := BuildSlideRequests(deck, Layout{PageWidth: 720, PageHeight: 405, InsertionIndex: 5}, counterIDs())
	require.Len(t, ids, 2)
	require.Len(t, reqs, 24)

	first := reqs[0].CreateSlide
	require.NotNil(t, first)
	assert.Equal(t, ids[0].Slide, first.ObjectId)
	assert.EqualValues(t, 5, first.InsertionIndex)
	assert.EqualValues(t, 6, reqs[12].CreateSlide.InsertionIndex)

	eng := reqs[2].CreateShape
	require.NotNil(t, eng)
	assert.Equal(t, "TEXT_BOX", eng.ShapeType)
	assert.Equal(t, 720.0, eng.ElementProperties.Size.Width.Magnitude)
	assert.Equal(t, 225.0, eng.ElementProperties.Transform.TranslateY)
	assert.Equal(t, "BOTTOM", reqs[3].UpdateShapeProperties.ShapeProperties.ContentAlignment)
	assert.Equal(t, "Amazing grace\nhow sweet", reqs[4].InsertText.Text)
	assert.Equal(t, "Arial Black", reqs[5].UpdateTextStyle.Style.FontFamily)
	assert.Equal(t, 1.0, reqs[5].UpdateTextStyle.Style.ForegroundColor.OpaqueColor.RgbColor.Green)
	assert.Equal(t, 0.0, reqs[5].UpdateTextStyle.Style.ForegroundColor.OpaqueColor.RgbColor.Blue)

	kor := reqs[7].CreateShape
	assert.Equal(t, 315.0, kor.ElementProperties.Transform.TranslateY)
	assert.Equal(t, "TOP", reqs[8].UpdateShapeProperties.ShapeProperties.ContentAlignment)
	assert.Equal(t, "나 같은 죄인\n주 은혜", reqs[9].InsertText.Text)
	assert.Equal(t, "Calibri", reqs[10].UpdateTextStyle.Style.FontFamily)
	assert.True(t, reqs[10].UpdateTextStyle.Style.Bold)
	assert.Equal(t, "CENTER", reqs[11].UpdateParagraphStyle.Style.Alignment)

	// Index 0 must still be sent.
	body, err := json.Marshal(reqs[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"insertionIndex":5`)
	zero, _ := BuildSlideRequests(deck[:1], Layout{}, counterIDs())
	body, _ = json.Marshal(zero[0])
	assert.Contains(t, string(body), `"insertionIndex":0`)
}

func TestPoints(t *testing.T) {
	assert.Equal(t, 720.0, points(&slides.Dimension{Magnitude: 9144000, Unit: "EMU"}))
	assert.Equal(t, 30.0, points(&slides.Dimension{Magnitude: 30, Unit: "PT"}))
	assert.Zero(t, points(nil))
}

type fakeGoogle struct {
	mu          sync.Mutex
	slideCount  int
	copies      []string
	deleted     []string
	batches     [][]*slides.Request
	failBatch   bool
	placeholder bool
}

func (f *fakeGoogle) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/drive/v3/files/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := strings.TrimPrefix(r.URL.Path, "/drive/v3/files/")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(id, "/copy"):
			var meta drive.File
			json.NewDecoder(r.Body).Decode(&meta)
			f.copies = append(f.copies, strings.TrimSuffix(id, "/copy")+"|"+meta.Name+"|"+strings.Join(meta.Parents, ","))
			json.NewEncoder(w).Encode(&drive.File{Id: "copy-1"})
		case r.Method == http.MethodDelete:
			f.deleted = append(f.deleted, id)
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/v1/presentations/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodPost {
			if f.failBatch {
				http.Error(w, `{"error":{"code":400,"message":"bad request"}}`, http.StatusBadRequest)
				return
			}
			var body slides.BatchUpdatePresentationRequest
			json.NewDecoder(r.Body).Decode(&body)
			f.batches = append(f.batches, body.Requests)
			json.NewEncoder(w).Encode(&slides.BatchUpdatePresentationResponse{PresentationId: "copy-1"})
			return
		}
		json.NewEncoder(w).Encode(f.presentation())
	})
	return mux
}

// presentation reports the template's slides plus whatever the first batch
// created, with a stray placeholder on the first new slide.
func (f *fakeGoogle) presentation() *slides.Presentation {
	pres := &slides.Presentation{
		PresentationId: "copy-1",
		PageSize: &slides.Size{
			Width:  &slides.Dimension{Magnitude: 9144000, Unit: "EMU"},
			Height: &slides.Dimension{Magnitude: 5143500, Unit: "EMU"},
		},
	}
	for i := 0; i < f.slideCount; i++ {
		pres.Slides = append(pres.Slides, &slides.Page{ObjectId: fmt.Sprintf("template_%d", i)})
	}
	if len(f.batches) == 0 {
		return pres
	}
	var page *slides.Page
	for _, req := range f.batches[0] {
		switch {
		case req.CreateSlide != nil:
			page = &slides.Page{ObjectId: req.CreateSlide.ObjectId}
			if f.placeholder && len(pres.Slides) == f.slideCount {
				page.PageElements = append(page.PageElements, &slides.PageElement{ObjectId: "placeholder_1"})
			}
			pres.Slides = append(pres.Slides, page)
		case req.CreateShape != nil:
			page.PageElements = append(page.PageElements, &slides.PageElement{ObjectId: req.CreateShape.ObjectId})
		}
	}
	return pres
}

func newSlidesRenderer(t *testing.T, fake *fakeGoogle, opts ...SlidesOption) *SlidesRenderer {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	ctx := context.Background()
	driveSvc, err := drive.NewService(ctx, option.WithEndpoint(srv.URL+"/drive/v3/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	slidesSvc, err := slides.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	clock := func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC) }
	r := NewSlidesRenderer(driveSvc, slidesSvc, append([]SlidesOption{withClock(clock), WithTargetFolder("out")}, opts...)...)
	r.newID = counterIDs()
	return r
}

func TestSlidesRendererRender(t *testing.T) {
	fake := &fakeGoogle{slideCount: 3, placeholder: true}
	r := newSlidesRenderer(t, fake)

	deck := pipeline.Deck{{English: "a", Korean: "가"}, {English: "b", Korean: "나"}}
	url, err := r.Render(context.Background(), deck, pipeline.TemplateSunday)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/presentation/d/copy-1/edit", url)

	assert.Equal(t, []string{"1FCivH5ECj72APlWDdsu_3BoHZN9LWbBl|20261018-093000|out"}, fake.copies)
	require.Len(t, fake.batches, 2)
	assert.Len(t, fake.batches[0], 24)
	// Template only has 3 slides, so new slides start at 3.
	assert.EqualValues(t, 3, fake.batches[0][0].CreateSlide.InsertionIndex)
	require.Len(t, fake.batches[1], 1)
	assert.Equal(t, "placeholder_1", fake.batches[1][0].DeleteObject.ObjectId)
	assert.Empty(t, fake.deleted)
}

func TestSlidesRendererNoPlaceholders(t *testing.T) {
	fake := &fakeGoogle{slideCount: 8}
	r := newSlidesRenderer(t, fake, WithInsertionIndex(2))

	_, err := r.Render(context.Background(), pipeline.Deck{{English: "a", Korean: "가"}}, pipeline.TemplateFriday)
	require.NoError(t, err)
	require.Len(t, fake.batches, 1)
	assert.EqualValues(t, 2, fake.batches[0][0].CreateSlide.InsertionIndex)
	assert.True(t, strings.HasPrefix(fake.copies[0], "1LevZxXZWhVzD06DYpSTbddw9-t0RlU4M|"))
}

func TestSlidesRendererDeletesCopyOnFailure(t *testing.T) {
	fake := &fakeGoogle{slideCount: 5, failBatch: true}
	r := newSlidesRenderer(t, fake)

	_, err := r.Render(context.Background(), pipeline.Deck{{English: "a", Korean: "가"}}, pipeline.TemplateSunday)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updating presentation copy-1")
	assert.Equal(t, []string{"copy-1"}, fake.deleted)
}

func TestSlidesRendererUnknownTemplate(t *testing.T) {
	fake := &fakeGoogle{}
	r := newSlidesRenderer(t, fake, WithTemplates(map[pipeline.Template]string{}))

	_, err := r.Render(context.Background(), pipeline.Deck{{English: "a", Korean: "가"}}, pipeline.TemplateSunday)
	require.Error(t, err)
	assert.Empty(t, fake.copies)
}

func TestFileRenderer(t *testing.T) {
	dir := t.TempDir()
	r := NewFileRenderer(filepath.Join(dir, "decks"))
	r.now = func() time.Time { return time.Date(2026, 10, 16, 19, 0, 0, 0, time.UTC) }

	deck := pipeline.Deck{{English: "Holy holy", Korean: "거룩 거룩"}}
	path, err := r.Render(context.Background(), deck, pipeline.TemplateFriday)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "decks", "20261016-190000-friday.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []map[string]string{{"english": "Holy holy", "korean": "거룩 거룩"}}, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, deck, pipeline.TemplateFriday)
	assert.ErrorIs(t, err, context.Canceled)
}
