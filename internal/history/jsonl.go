package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/quocvuong92/zor/internal/logging"
)

// JSONFileName is the JSON Lines log inside the history directory
const JSONFileName = "history.jsonl"

// JSONStore keeps one JSON object per line. Lines are appended with
// O_APPEND so an interrupted write can only leave a torn final line, which
// Recent skips.
type JSONStore struct {
	mu     sync.Mutex
	path   string
	logger *logging.Logger
}

// OpenJSON opens the log in dir, creating dir if needed
func OpenJSON(dir string, logger *logging.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &JSONStore{path: filepath.Join(dir, JSONFileName), logger: logger}, nil
}

// Path returns the log file location
func (s *JSONStore) Path() string {
	return s.path
}

// Append writes e as a single line
func (s *JSONStore) Append(ctx context.Context, e *Exchange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepare(e)

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode exchange: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	torn, err := endsMidLine(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to read history: %w", err)
	}
	if torn {
		// terminate the interrupted line so this record stays on its own
		line = append([]byte{'\n'}, line...)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append history: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close history: %w", err)
	}
	return nil
}

// endsMidLine reports whether f is non-empty and lacks a trailing newline
func endsMidLine(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

// Recent returns the last n exchanges, newest first
func (s *JSONStore) Recent(ctx context.Context, n int) ([]Exchange, error) {
	if n <= 0 {
		return []Exchange{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Exchange{}, nil
		}
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Ring of the last n entries
	ring := make([]Exchange, 0, n)
	next := 0
	reader := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, readErr := reader.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var e Exchange
			if err := json.Unmarshal(line, &e); err != nil {
				s.logger.Warn("Skipping unreadable history line", logging.Fields{"line": lineNo, "error": err.Error()})
			} else if len(ring) < n {
				ring = append(ring, e)
			} else {
				ring[next] = e
				next = (next + 1) % n
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read history: %w", readErr)
		}
	}

	out := make([]Exchange, 0, len(ring))
	for i := len(ring) - 1; i >= 0; i-- {
		out = append(out, ring[(next+i)%len(ring)])
	}
	return out, nil
}

// Close is a no-op; the file is opened per call
func (s *JSONStore) Close() error {
	return nil
}
