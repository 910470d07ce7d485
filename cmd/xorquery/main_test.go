package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/brianolson/xorset/registry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs, oldFlags := os.Args, flag.CommandLine
	t.Cleanup(func() { os.Args, flag.CommandLine = oldArgs, oldFlags })
	os.Args = append([]string{"xorquery"}, args...)
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flag.CommandLine.SetOutput(io.Discard)
}

func loadedRegistry(t *testing.T) (*registry.Registry, *registry.Document) {
	t.Helper()
	dir := t.TempDir()
	doc, err := registry.BuildDocument("fruit.txt", strings.NewReader("apple\nbanana\n"))
	require.NoError(t, err)
	_, err = registry.WriteDocument(dir, doc)
	require.NoError(t, err)

	reg := registry.New(dir)
	_, err = reg.Reload(context.Background())
	require.NoError(t, err)
	return reg, doc
}

func TestRunQuery(t *testing.T) {
	reg, doc := loadedRegistry(t)

	var out bytes.Buffer
	require.NoError(t, run(reg, &out, []string{"query", doc.UUID.String(), "apple", "banana"}))

	dec := json.NewDecoder(&out)
	for _, want := range []string{"apple", "banana"} {
		var res queryResult
		require.NoError(t, dec.Decode(&res))
		assert.True(t, res.Found)
		assert.Equal(t, doc.UUID, res.UUID)
		assert.Equal(t, want, res.Text)
	}
}

func TestRunList(t *testing.T) {
	reg, doc := loadedRegistry(t)

	var out bytes.Buffer
	require.NoError(t, run(reg, &out, []string{"list"}))

	var e listEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &e))
	assert.Equal(t, doc.UUID, e.UUID)
	assert.Equal(t, 2, e.NumEntries)
	assert.Equal(t, len(doc.FilterData), e.Bytes)
}

func TestRunErrors(t *testing.T) {
	reg, _ := loadedRegistry(t)
	var out bytes.Buffer

	assert.ErrorIs(t, run(reg, &out, nil), errUsage)
	assert.ErrorIs(t, run(reg, &out, []string{"bogus"}), errUsage)
	assert.ErrorIs(t, run(reg, &out, []string{"query", uuid.NewString()}), errUsage)
	assert.Error(t, run(reg, &out, []string{"query", "not-a-uuid", "x"}))
	assert.ErrorIs(t, run(reg, &out, []string{"query", uuid.NewString(), "x"}), registry.ErrNotFound)
}

func TestQueryMainExitCodes(t *testing.T) {
	dir := t.TempDir()
	doc, err := registry.BuildDocument("fruit.txt", strings.NewReader("apple\n"))
	require.NoError(t, err)
	_, err = registry.WriteDocument(dir, doc)
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"list", []string{"-dir", dir, "list"}, 0},
		{"query", []string{"-dir", dir, "query", doc.UUID.String(), "apple"}, 0},
		{"no command", []string{"-dir", dir}, 2},
		{"unknown uuid", []string{"-dir", dir, "query", uuid.NewString(), "apple"}, 1},
		{"bad uuid", []string{"-dir", dir, "query", "nope", "apple"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setArgs(t, tt.args...)
			assert.Equal(t, tt.want, queryMain())
		})
	}
}
