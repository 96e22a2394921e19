package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

const followPollFallback = time.Second

// TailFile writes the last n lines of path to w.
func TailFile(w io.Writer, path string, n int) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-chosen log path
	if err != nil {
		return err
	}
	lines := bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// FollowFile streams appended bytes from path to w until ctx is cancelled.
// Write events come from fsnotify; a slow ticker catches anything the
// watcher misses (e.g. writes on filesystems without notification support).
func FollowFile(ctx context.Context, w io.Writer, path string) error {
	f, err := os.Open(path) //nolint:gosec // operator-chosen log path
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck
	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	ticker := time.NewTicker(followPollFallback)
	defer ticker.Stop()

	for {
		if _, err := io.Copy(w, f); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case ev := <-watcher.Events:
			if ev.Op&fsnotify.Remove != 0 {
				return fmt.Errorf("%s removed", path)
			}
		case err := <-watcher.Errors:
			if err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		case <-ticker.C:
		}
	}
}
