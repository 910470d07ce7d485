package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/brianolson/xorset/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "fruit.txt")
	require.NoError(t, os.WriteFile(input, []byte("apple\nbanana\n\nwatermelon\n"), 0o644))
	out := filepath.Join(dir, "filters")

	require.NoError(t, run(zaptest.NewLogger(t), input, out))

	files, err := filepath.Glob(filepath.Join(out, "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	doc, err := registry.ReadDocument(files[0])
	require.NoError(t, err)
	assert.Equal(t, input, doc.SourceFile)
	assert.Equal(t, 3, doc.NumEntries)
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	log := zaptest.NewLogger(t)

	err := run(log, filepath.Join(dir, "missing.txt"), dir)
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n\n"), 0o644))
	err = run(log, empty, dir)
	assert.ErrorIs(t, err, registry.ErrNoEntries)
}

func TestBuildMainExitCodes(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "fruit.txt")
	require.NoError(t, os.WriteFile(input, []byte("apple\n"), 0o644))
	out := filepath.Join(dir, "filters")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"ok", []string{"-output-dir", out, input}, 0},
		{"no input", []string{"-output-dir", out}, 2},
		{"missing input", []string{"-output-dir", out, filepath.Join(dir, "missing.txt")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs, oldFlags, oldUsage := os.Args, flag.CommandLine, flag.Usage
			t.Cleanup(func() { os.Args, flag.CommandLine, flag.Usage = oldArgs, oldFlags, oldUsage })
			os.Args = append([]string{"xorbuild"}, tt.args...)
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
			flag.CommandLine.SetOutput(io.Discard)

			assert.Equal(t, tt.want, buildMain())
		})
	}
}
