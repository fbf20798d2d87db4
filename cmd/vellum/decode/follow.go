package decodecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
)

// followReader reads a file to its current end, then blocks until the file
// grows. It reports io.EOF when the context is canceled, so a decode run
// finishes cleanly (Finish plus final flush) on Ctrl-C.
type followReader struct {
	ctx     context.Context
	file    *os.File
	watcher *fsnotify.Watcher
}

func newFollowReader(ctx context.Context, path string) (*followReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		file.Close()
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	return &followReader{
		ctx:     ctx,
		file:    file,
		watcher: watcher,
	}, nil
}

func (r *followReader) Read(p []byte) (int, error) {
	for {
		n, err := r.file.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}

		// Caught up with the writer. Wait for more data or cancellation.
		select {
		case <-r.ctx.Done():
			return 0, io.EOF
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return 0, io.EOF
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				return 0, io.EOF
			}
		case werr, ok := <-r.watcher.Errors:
			if !ok {
				return 0, io.EOF
			}
			return 0, werr
		}
	}
}

func (r *followReader) Close() error {
	r.watcher.Close()
	return r.file.Close()
}
