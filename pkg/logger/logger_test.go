package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, Output: &buf})
	return l, &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(WARN)

	l.Infof("hidden %d", 1)
	l.Warnf("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 2")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", DEBUG, true},
		{" INFO ", INFO, true},
		{"warning", WARN, true},
		{"error", ERROR, true},
		{"fatal", FATAL, true},
		{"", INFO, false},
		{"loud", INFO, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestErrorLevel(t *testing.T) {
	l, buf := newBufferLogger(ERROR)

	l.Warnf("skipped")
	l.Errorf("render failed: %s", "quota")

	out := buf.String()
	assert.NotContains(t, out, "skipped")
	assert.Contains(t, out, "[ERROR] render failed: quota")
}

func TestColorizeWrapsTag(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: DEBUG, Colorize: true, Output: &buf})

	l.Errorf("x")

	assert.Equal(t, "\033[31m[ERROR]\033[0m x\n", buf.String())
}

func TestShowCallerNamesCallingFile(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: INFO, ShowCaller: true, Output: &buf})

	l.Infof("here")

	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestWithLeavesParentUnprefixed(t *testing.T) {
	l, buf := newBufferLogger(INFO)
	child := l.With("run=7")

	l.Infof("parent")
	child.Infof("child")

	assert.Equal(t, "[INFO] parent\n[INFO] run=7 child\n", buf.String())
}

func TestWithPrefixesMessages(t *testing.T) {
	l, buf := newBufferLogger(INFO)

	l.With("run=42").With("song=Amazing Grace").Infof("reconciled")

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "run=42 song=Amazing Grace reconciled"), line)
}

func TestFatalExits(t *testing.T) {
	var code int
	prev := exit
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = prev })

	l, buf := newBufferLogger(INFO)
	l.Fatalf("boom")

	require.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "[FATAL] boom")
}

func TestDiscardDropsOutput(t *testing.T) {
	l := Discard()
	l.Infof("nothing")
	l.Warnf("nothing")
	assert.Equal(t, FATAL, l.Level())
}
