package playlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	var gotID string
	p := NewPreviewer(WithLister(func(_ context.Context, id string) ([]Video, error) {
		gotID = id
		return []Video{
			{ID: "vid00000001", Title: "마커스워십 - 주 은혜 놀라워 (Official Video)"},
			{ID: "vid00000002", Title: "Way Maker [Lyrics]"},
		}, nil
	}))

	preview, err := p.Preview(context.Background(), "https://www.youtube.com/playlist?list=PLabcdefghij")
	require.NoError(t, err)
	assert.Equal(t, "PLabcdefghij", gotID)
	assert.Equal(t, "PLabcdefghij", preview.PlaylistID)
	require.Len(t, preview.Videos, 2)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid00000001", preview.Videos[0].URL)
	assert.Equal(t, []string{"주 은혜 놀라워", "Way Maker"}, preview.Titles())
}

func TestPreviewInvalidReference(t *testing.T) {
	called := false
	p := NewPreviewer(WithLister(func(context.Context, string) ([]Video, error) {
		called = true
		return nil, nil
	}))

	_, err := p.Preview(context.Background(), "https://vimeo.com/playlist?list=PLabcdefghij")
	assert.Error(t, err)
	_, err = p.Preview(context.Background(), "")
	assert.Error(t, err)
	assert.False(t, called)
}

func TestPreviewTimeout(t *testing.T) {
	p := NewPreviewer(WithTimeout(10*time.Millisecond), WithLister(func(ctx context.Context, _ string) ([]Video, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	_, err := p.Preview(context.Background(), "PLabcdefghij")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSongTitle(t *testing.T) {
	cases := map[string]string{
		"Way Maker":                                "Way Maker",
		"Sinach - Way Maker (Live)":                "Way Maker",
		"Hillsong UNITED | Oceans [Official Lyrics]": "Oceans",
		"Goodness of God - Official Lyric Video":   "Goodness of God",
		"【찬양】 예수 사랑하심은":                          "예수 사랑하심은",
		"\"Holy Forever\"":                         "Holy Forever",
	}
	for in, want := range cases {
		assert.Equal(t, want, SongTitle(in), in)
	}
}
