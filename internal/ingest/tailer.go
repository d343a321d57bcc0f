package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/event"
)

// DefaultPollInterval is how often the tailer checks the file for growth.
const DefaultPollInterval = 2 * time.Second

// Tailer follows a growing NDJSON file and hands each appended event to a
// handler. It starts at the current end of file, so only events written
// after Run begins are seen.
type Tailer struct {
	path     string
	interval time.Duration
	logger   log.Logger
}

// NewTailer creates a tailer for the given file. A non-positive interval
// falls back to DefaultPollInterval.
func NewTailer(path string, interval time.Duration, logger log.Logger) *Tailer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Tailer{path: path, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, invoking handle for every event
// appended to the file. Returns ctx.Err() on cancellation; any other error
// means the file became unreadable.
func (t *Tailer) Run(ctx context.Context, handle func(event.Event)) error {
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("open tail file: %w", err)
	}
	defer f.Close()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("seek tail file: %w", err)
	}

	t.logger.Info(ctx, "tailing events file",
		"path", t.path,
		"offset", offset,
		"poll_interval", t.interval.String(),
	)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	r := bufio.NewReaderSize(f, 64*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if offset, err = t.drain(ctx, r, f, offset, handle); err != nil {
			return err
		}
	}
}

// drain reads all complete lines appended since the last poll. A trailing
// partial line (no newline yet) is rewound and retried next poll. If the
// file was truncated the tailer restarts from the beginning.
func (t *Tailer) drain(ctx context.Context, r *bufio.Reader, f *os.File, offset int64, handle func(event.Event)) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat tail file: %w", err)
	}
	if fi.Size() < offset {
		t.logger.Warn(ctx, "events file truncated, restarting from beginning", "path", t.path)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return offset, fmt.Errorf("seek tail file: %w", err)
		}
		r.Reset(f)
		offset = 0
	}
	if fi.Size() == offset {
		return offset, nil
	}

	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Partial line; re-read it once the writer finishes.
				if _, serr := f.Seek(offset, io.SeekStart); serr != nil {
					return offset, fmt.Errorf("seek tail file: %w", serr)
				}
				r.Reset(f)
				return offset, nil
			}
			return offset, fmt.Errorf("read tail file: %w", err)
		}
		offset += int64(len(line))

		evs, derr := decodeLine(line)
		if derr != nil {
			t.logger.Warn(ctx, "skipping malformed event line", "path", t.path)
			continue
		}
		for _, ev := range evs {
			handle(ev)
		}
	}
}
