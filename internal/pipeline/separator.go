package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/shinji-kodama/exrsplit/internal/channel"
	"github.com/shinji-kodama/exrsplit/internal/config"
	"github.com/shinji-kodama/exrsplit/internal/exr"
	"github.com/shinji-kodama/exrsplit/internal/model"
)

// WorkItem is one independent unit of work: extract one logical channel
// from one source file.
type WorkItem struct {
	File    string
	Channel string
}

// unitResult is what a worker reports back for one WorkItem.
type unitResult struct {
	item    WorkItem
	wrote   bool
	skipped bool
	err     error
}

// Separator drives one separation pass over a folder. Construction
// enumerates the files and builds the channel catalog; Run executes the
// work units. After New returns, all fields are read-only.
type Separator struct {
	folder   string
	files    []string
	catalog  channel.Catalog
	settings config.Settings
	log      *slog.Logger
}

// New enumerates the folder's EXR files and builds the channel catalog
// from the first one. The catalog describes every file in the sequence;
// files are assumed to share the first file's header layout.
func New(folder string, settings config.Settings, log *slog.Logger) (*Separator, error) {
	log.Info("creating sequence", "folder", folder)

	files, err := Discover(folder)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidFolder, "cannot list folder", err)
	}
	log.Info("files found", "count", len(files))
	if len(files) == 0 {
		return nil, model.NewCLIError(model.ExitNoInputFiles, fmt.Sprintf("no %s files in %s", exrExtension, folder))
	}

	hdr, err := exr.ReadHeader(files[0])
	if err != nil {
		return nil, model.WrapCLIError(model.ExitBadHeader, "cannot read sequence header", err)
	}
	log.Debug("sequence header", "file", files[0], "size", fmt.Sprintf("%dx%d", hdr.Width, hdr.Height))
	for _, attr := range hdr.Attributes {
		log.Debug("header attribute", "name", attr.Name, "type", attr.Type, "bytes", len(attr.Value))
	}

	catalog, err := channel.BuildCatalog(hdr.Channels, log)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitBadHeader, "cannot build channel catalog", err)
	}
	log.Info("parsed channels", "channels", strings.Join(catalog.Names(), ", "))

	return &Separator{
		folder:   folder,
		files:    files,
		catalog:  catalog,
		settings: settings,
		log:      log,
	}, nil
}

// Catalog exposes the parsed channel catalog.
func (s *Separator) Catalog() channel.Catalog {
	return s.catalog
}

// Run executes every (file, channel) work unit across the worker pool
// and returns the aggregate summary. Unit failures are logged and
// counted, never propagated; cancellation stops the feed and lets
// in-flight units finish.
func (s *Separator) Run(ctx context.Context) model.RunSummary {
	start := time.Now()
	summary := model.RunSummary{
		Files:    len(s.files),
		Channels: s.catalog.Names(),
	}

	items := make([]WorkItem, 0, len(s.files)*len(summary.Channels))
	for _, file := range s.files {
		for _, name := range summary.Channels {
			items = append(items, WorkItem{File: file, Channel: name})
		}
	}

	workers := s.settings.Jobs
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(items) && len(items) > 0 {
		workers = len(items)
	}
	s.log.Info("starting separation", "units", len(items), "workers", workers)

	jobs := make(chan WorkItem)
	results := make(chan unitResult)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				results <- s.runUnit(item)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, item := range items {
			select {
			case jobs <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for res := range results {
		done++
		switch {
		case res.err != nil:
			summary.Failed++
			s.log.Error("work unit failed", "file", res.item.File, "channel", res.item.Channel, "error", res.err)
		case res.wrote:
			summary.Written++
		case res.skipped:
			summary.Skipped++
		}
	}

	if ctx.Err() != nil && done < len(items) {
		summary.Interrupted = true
		s.log.Warn("interrupted", "remaining", len(items)-done)
	}

	summary.Finish(start)
	s.log.Info("separation done",
		"files", summary.Files,
		"channels", len(summary.Channels),
		"written", summary.Written,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed.Round(time.Millisecond).String())
	return summary
}

// runUnit shields the pool from a panicking unit; the panic is recorded
// as that unit's failure.
func (s *Separator) runUnit(item WorkItem) (res unitResult) {
	defer func() {
		if r := recover(); r != nil {
			res = unitResult{item: item, err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return s.processUnit(item)
}
