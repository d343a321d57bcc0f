// Package ingest reads NDJSON security events from local files, either as a
// finite batch or by tailing a growing log.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/event"
)

// maxLineBytes bounds a single NDJSON line. Events are log records, not
// payload dumps; anything larger is treated as malformed.
const maxLineBytes = 1 << 20

// ReadBatch reads every event from an NDJSON file. Malformed lines are
// logged and skipped; they never abort the batch.
func ReadBatch(path string, logger log.Logger) ([]event.Event, error) {
	if logger == nil {
		logger = log.Nop()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	var (
		out     []event.Event
		lineNum int
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		lineNum++
		evs, err := decodeLine(sc.Bytes())
		if err != nil {
			logger.Warn(context.Background(), "skipping malformed event line",
				"path", path,
				"line", lineNum,
			)
			continue
		}
		out = append(out, evs...)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("read events file: %w", err)
	}
	return out, nil
}

// decodeLine parses one NDJSON line. A line normally holds one object, but
// concatenated objects on a single line are tolerated and all returned.
func decodeLine(line []byte) ([]event.Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var out []event.Event
	dec := json.NewDecoder(bytes.NewReader(line))
	for {
		var ev event.Event
		if err := dec.Decode(&ev); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		out = append(out, ev)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no JSON object on line")
	}
	return out, nil
}
