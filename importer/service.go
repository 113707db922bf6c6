package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"timetrack/internal/logging"
	"timetrack/internal/metrics"
	"timetrack/reconcile"
)

// ErrSourceNotFound is returned when the import file does not exist.
var ErrSourceNotFound = errors.New("import source not found")

// Store is everything the engine needs from persistence.
type Store interface {
	OwnerStore
	EntryStore
	reconcile.Syncer
}

type Options struct {
	Path            string
	Format          string
	DefaultUsername string
	DryRun          bool
}

// Result holds the counters of one finished run.
type Result struct {
	Imported            int `json:"imported"`
	Skipped             int `json:"skipped"`
	Errors              int `json:"errors"`
	SyncedUpdatedAtRows int `json:"syncedUpdatedAtRows"`
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Run imports one file top to bottom. Bad rows are counted and never abort
// the run; a missing source, a read failure, a cancelled ctx or a failed
// timestamp sync do, and then no result is returned.
func (e *Engine) Run(ctx context.Context, opts Options) (result *Result, err error) {
	defer func() {
		counts := metrics.RunCounts{}
		if result != nil {
			counts = metrics.RunCounts{
				Imported: result.Imported,
				Skipped:  result.Skipped,
				Errors:   result.Errors,
				Synced:   result.SyncedUpdatedAtRows,
			}
		}
		metrics.ObserveRun(counts, opts.DryRun, err != nil)
	}()

	if _, err := os.Stat(opts.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, opts.Path)
		}
		return nil, fmt.Errorf("stat import source %s: %w", opts.Path, err)
	}

	source, err := OpenSource(opts.Path, opts.Format)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	log := logging.FromContext(ctx).WithFields(logrus.Fields{
		"file":    opts.Path,
		"dry_run": opts.DryRun,
	})

	processor := NewProcessor(e.store, e.store, strings.TrimSpace(opts.DefaultUsername), opts.DryRun)
	counters := &Result{}
	insertedIDs := make([]int64, 0, 128)

	for record, readErr := range source.Rows() {
		if readErr != nil {
			return nil, fmt.Errorf("read %s: %w", opts.Path, readErr)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("import aborted before row %d: %w", record.RowNumber, ctxErr)
		}

		outcome := processor.Process(ctx, record)
		switch outcome.Kind {
		case OutcomeImported:
			counters.Imported++
			if outcome.EntryID > 0 {
				insertedIDs = append(insertedIDs, outcome.EntryID)
			}
		case OutcomeSkipped:
			counters.Skipped++
			log.WithField("row", record.RowNumber).Warnf("Row %d skipped: %s", record.RowNumber, outcome.Reason)
		case OutcomeErrored:
			counters.Errors++
			log.WithField("row", record.RowNumber).Warnf("Row %d error: %v", record.RowNumber, outcome.Err)
		}
	}

	if !opts.DryRun && len(insertedIDs) > 0 {
		synced, err := reconcile.SyncUpdatedAt(ctx, e.store, insertedIDs)
		if err != nil {
			return nil, err
		}
		counters.SyncedUpdatedAtRows = synced
	}

	log.WithFields(logrus.Fields{
		"imported": counters.Imported,
		"skipped":  counters.Skipped,
		"errors":   counters.Errors,
		"synced":   counters.SyncedUpdatedAtRows,
	}).Info("import finished")

	return counters, nil
}
