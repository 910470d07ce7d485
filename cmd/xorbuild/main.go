// Command xorbuild builds a filter document from a text file holding one
// entry per line.
//
//	xorbuild [-output-dir filters] [-v] input.txt
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianolson/xorset/registry"
	"go.uber.org/zap"
)

func main() {
	os.Exit(buildMain())
}

// buildMain returns the exit code so that deferred calls, log.Sync in
// particular, run before the process exits.
func buildMain() int {
	outputDir := flag.String("output-dir", "filters", "directory for filter documents")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] input.txt\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}

	log := newLogger(*verbose)
	defer log.Sync()

	if err := run(log, flag.Arg(0), *outputDir); err != nil {
		log.Error("build failed", zap.Error(err))
		return 1
	}
	return 0
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}

func run(log *zap.Logger, input, outputDir string) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	doc, err := registry.BuildDocument(input, f)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	path, err := registry.WriteDocument(outputDir, doc)
	if err != nil {
		return err
	}

	log.Debug("filter built",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(doc.FilterData)))
	fmt.Printf("UUID: %s\n", doc.UUID)
	fmt.Printf("Output file: %s\n", path)
	fmt.Printf("Entries: %d\n", doc.NumEntries)
	return nil
}
