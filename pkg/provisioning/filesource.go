package provisioning

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FileSource tails a spool file of newline-delimited JSON user events.
// An external process appends one event per line; FileSource picks up
// every line written after it started. A truncated file is re-read from
// the beginning, so the spool can be rotated.
type FileSource struct {
	path    string
	watcher *fsnotify.Watcher
	events  chan UserEvent
	offset  int64
	logger  zerolog.Logger
}

// NewFileSource opens a watcher on path. The file must already exist.
func NewFileSource(path string, logger zerolog.Logger) (*FileSource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	// Start at the current end of file so old events are not replayed.
	var offset int64
	if info, err := os.Stat(path); err == nil {
		offset = info.Size()
	}

	return &FileSource{
		path:    path,
		watcher: watcher,
		events:  make(chan UserEvent),
		offset:  offset,
		logger:  logger.With().Str("spool", path).Logger(),
	}, nil
}

func (s *FileSource) Name() string { return "file" }

// Events returns the channel Run delivers on. It is closed when Run
// returns.
func (s *FileSource) Events() <-chan UserEvent { return s.events }

// Run pumps events until ctx is cancelled or the watcher is closed.
func (s *FileSource) Run(ctx context.Context) error {
	defer close(s.events)
	defer func() { _ = s.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.drain(ctx); err != nil {
				if err == ctx.Err() {
					return err
				}
				s.logger.Error().Err(err).Msg("failed to read spool file")
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// drain reads every complete line appended since the last read and
// delivers the events it can decode.
func (s *FileSource) drain(ctx context.Context) error {
	file, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < s.offset {
		// Rotated or truncated.
		s.offset = 0
	}

	if _, err := file.Seek(s.offset, io.SeekStart); err != nil {
		return err
	}

	buf, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	for {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			// Incomplete line; leave it for the next write event.
			return nil
		}
		line := buf[:idx]
		buf = buf[idx+1:]
		s.offset += int64(idx) + 1

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		event, err := DecodeUserEvent(line)
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping malformed spool line")
			continue
		}

		select {
		case s.events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
