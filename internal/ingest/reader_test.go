package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/linnemanlabs/go-core/log"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.ndjson")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadBatch(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `{"_id":"a","event_type":"alert"}
{"_id":"b","message":"ok"}
{"_id":"c"}
`)
	evs, err := ReadBatch(path, log.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 3 {
		t.Fatalf("len = %d, want 3", len(evs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got := evs[i].ID(); got != want {
			t.Errorf("event[%d].ID = %q, want %q", i, got, want)
		}
	}
}

func TestReadBatch_SkipsMalformedLines(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `{"_id":"good-1"}
not json at all
{"_id":"good-2"}
{"truncated":
`)
	evs, err := ReadBatch(path, log.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 {
		t.Fatalf("len = %d, want 2", len(evs))
	}
	if evs[0].ID() != "good-1" || evs[1].ID() != "good-2" {
		t.Errorf("got IDs %q, %q", evs[0].ID(), evs[1].ID())
	}
}

func TestReadBatch_SkipsBlankLines(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "\n{\"_id\":\"x\"}\n\n\n")
	evs, err := ReadBatch(path, log.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 1 {
		t.Fatalf("len = %d, want 1", len(evs))
	}
}

func TestReadBatch_MultipleObjectsPerLine(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `{"_id":"m1"}{"_id":"m2"}
`)
	evs, err := ReadBatch(path, log.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 {
		t.Fatalf("len = %d, want 2", len(evs))
	}
	if evs[0].ID() != "m1" || evs[1].ID() != "m2" {
		t.Errorf("got IDs %q, %q", evs[0].ID(), evs[1].ID())
	}
}

func TestReadBatch_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := ReadBatch(filepath.Join(t.TempDir(), "absent.ndjson"), log.Nop()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadBatch_EmptyFile(t *testing.T) {
	t.Parallel()

	evs, err := ReadBatch(writeFile(t, ""), log.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 0 {
		t.Errorf("len = %d, want 0", len(evs))
	}
}
