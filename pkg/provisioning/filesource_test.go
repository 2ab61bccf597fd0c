package provisioning

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpool(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func collectEvents(t *testing.T, source *FileSource, want int) []UserEvent {
	t.Helper()
	var got []UserEvent
	timeout := time.After(5 * time.Second)
	for len(got) < want {
		select {
		case event, ok := <-source.Events():
			if !ok {
				t.Fatalf("source closed after %d of %d events", len(got), want)
			}
			got = append(got, event)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(got), want)
		}
	}
	return got
}

func TestFileSourceDeliversAppendedEvents(t *testing.T) {
	spool := filepath.Join(t.TempDir(), "users.jsonl")
	writeSpool(t, spool, "{\"username\":\"old\",\"email\":\"old@example.com\"}\n")

	source, err := NewFileSource(spool, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = source.Run(ctx)
	}()

	writeSpool(t, spool, "{\"username\":\"alice\",\"email\":\"alice@example.com\"}\n")
	writeSpool(t, spool, "not json\n{\"username\":\"bob\",\"email\":\"bob@example.com\"}\n")

	got := collectEvents(t, source, 2)

	// Events before the source started are not replayed, and the
	// malformed line is skipped without stalling the stream.
	assert.Equal(t, "alice", got[0].Username)
	assert.Equal(t, "bob", got[1].Username)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("source did not stop on cancel")
	}
}

func TestFileSourceHandlesPartialLines(t *testing.T) {
	spool := filepath.Join(t.TempDir(), "users.jsonl")
	writeSpool(t, spool, "")

	source, err := NewFileSource(spool, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = source.Run(ctx) }()

	// A write without a trailing newline stays buffered until the line
	// is completed by a later write.
	writeSpool(t, spool, "{\"username\":\"carol\",")
	writeSpool(t, spool, "\"email\":\"carol@example.com\"}\n")

	got := collectEvents(t, source, 1)
	assert.Equal(t, UserEvent{Username: "carol", Email: "carol@example.com"}, got[0])
}

func TestNewFileSourceMissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "absent.jsonl"), zerolog.Nop())
	require.Error(t, err)
}
