package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCapacity(t *testing.T) {
	tests := []struct {
		name    string
		pair    LinePair
		wantErr error
		lang    Language
		lines   int
	}{
		{name: "one and one", pair: LinePair{English: "a", Korean: "가"}},
		{name: "two and two", pair: LinePair{English: "a\nb", Korean: "가\n나"}},
		{name: "uneven sides", pair: LinePair{English: "a", Korean: "가\n나"}},
		{name: "three english", pair: LinePair{English: "a\nb\nc", Korean: "가"}, wantErr: ErrCapacityExceeded, lang: English, lines: 3},
		{name: "three korean", pair: LinePair{English: "a", Korean: "가\n나\n다"}, wantErr: ErrCapacityExceeded, lang: Korean, lines: 3},
		{name: "empty english", pair: LinePair{Korean: "가"}, wantErr: ErrIncompletePair},
		{name: "blank korean", pair: LinePair{English: "a", Korean: " "}, wantErr: ErrIncompletePair},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCapacity(tt.pair)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			var ce *CapacityExceededError
			if errors.As(err, &ce) {
				assert.Equal(t, tt.lang, ce.Language)
				assert.Equal(t, tt.lines, ce.Lines)
			}
		})
	}
}

func TestPartitionPassesPairsThrough(t *testing.T) {
	in := []LinePair{
		{English: "a\nb", Korean: "가\n나"},
		{English: "c", Korean: "다"},
	}

	out, err := Partition("song", in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out[0].English = "changed"
	assert.Equal(t, "a\nb", in[0].English, "partition returns a copy")
}

func TestPartitionReportsTitle(t *testing.T) {
	_, err := Partition("Overflow", []LinePair{
		{English: "a", Korean: "가"},
		{English: "a\nb\nc", Korean: "가"},
	})

	var ce *CapacityExceededError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Overflow", ce.Title)
	assert.Contains(t, err.Error(), "Overflow")
}

func TestLinePairLines(t *testing.T) {
	p := LinePair{English: "one\ntwo", Korean: ""}
	assert.Equal(t, 2, p.Lines(English))
	assert.Equal(t, 0, p.Lines(Korean))
}
