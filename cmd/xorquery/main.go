// Command xorquery loads a directory of filter documents and answers
// membership queries against them.
//
//	xorquery [-dir filters] list
//	xorquery [-dir filters] query <uuid> <text>...
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/brianolson/xorset/registry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type queryResult struct {
	Found bool      `json:"found"`
	UUID  uuid.UUID `json:"uuid"`
	Text  string    `json:"text"`
}

type listEntry struct {
	UUID       uuid.UUID `json:"uuid"`
	SourceFile string    `json:"source_file,omitempty"`
	NumEntries int       `json:"num_entries"`
	Bytes      int       `json:"bytes"`
}

var errUsage = errors.New("usage: xorquery [-dir filters] list | query <uuid> <text>...")

func main() {
	os.Exit(queryMain())
}

// queryMain returns the exit code so that deferred calls run before the
// process exits.
func queryMain() int {
	dir := flag.String("dir", "filters", "directory of filter documents")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := newLogger(*verbose)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := registry.New(*dir, registry.WithLogger(log))
	if _, err := reg.Reload(ctx); err != nil {
		log.Error("reload failed", zap.String("dir", *dir), zap.Error(err))
		return 1
	}

	if err := run(reg, os.Stdout, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(flag.CommandLine.Output(), err)
			return 2
		}
		log.Error("query failed", zap.Error(err))
		return 1
	}
	return 0
}

// newLogger writes warnings and errors to stderr; -v adds the registry's
// per-file debug output.
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}

func run(reg *registry.Registry, w io.Writer, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	enc := json.NewEncoder(w)
	switch args[0] {
	case "list":
		for _, e := range reg.List() {
			err := enc.Encode(listEntry{
				UUID:       e.ID,
				SourceFile: e.SourceFile,
				NumEntries: e.NumEntries,
				Bytes:      e.Filter.SizeInBytes(),
			})
			if err != nil {
				return err
			}
		}
		return nil
	case "query":
		if len(args) < 3 {
			return errUsage
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("bad uuid %q: %w", args[1], err)
		}
		for _, text := range args[2:] {
			found, err := reg.Query(id, text)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			if err := enc.Encode(queryResult{Found: found, UUID: id, Text: text}); err != nil {
				return err
			}
		}
		return nil
	default:
		return errUsage
	}
}
