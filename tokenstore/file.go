package tokenstore

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const defaultPollInterval = 500 * time.Millisecond

// File persists the token pair as a JSON document on disk, the way a CLI
// keeps its credentials between invocations. Watch detects writes from other
// processes by polling the file contents.
type File struct {
	path         string
	pollInterval time.Duration
}

var _ Store = (*File)(nil)

// FileOption configures a File store.
type FileOption func(*File)

// WithPollInterval sets how often Watch re-reads the file.
func WithPollInterval(d time.Duration) FileOption {
	return func(f *File) {
		f.pollInterval = d
	}
}

// NewFile creates a file-backed store at path. The parent directory is
// created on the first Save.
func NewFile(path string, options ...FileOption) *File {
	f := &File{path: path, pollInterval: defaultPollInterval}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// Save writes the pair atomically: a temp file in the same directory is
// renamed over the target so a concurrent reader never observes a torn write.
func (f *File) Save(_ context.Context, pair Pair) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return errors.Wrap(err, "[File.Save] mkdir")
	}
	data, err := json.Marshal(pair)
	if err != nil {
		return errors.Wrap(err, "[File.Save] marshal")
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".tokens-*")
	if err != nil {
		return errors.Wrap(err, "[File.Save] create temp")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "[File.Save] write")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "[File.Save] chmod")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "[File.Save] close")
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "[File.Save] rename")
	}
	return nil
}

// Clear removes the credentials file. A missing file is not an error.
func (f *File) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[File.Clear] remove")
	}
	return nil
}

func (f *File) AccessToken(ctx context.Context) (string, error) {
	pair, err := f.read()
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

func (f *File) RefreshToken(ctx context.Context) (string, error) {
	pair, err := f.read()
	if err != nil {
		return "", err
	}
	return pair.RefreshToken, nil
}

// Watch polls the file and delivers a snapshot whenever its contents change,
// including deletion. Polling granularity bounds how quickly another
// process's logout is observed.
func (f *File) Watch(ctx context.Context) (<-chan Pair, error) {
	ch := make(chan Pair, 8)
	last, _ := f.raw()

	go func() {
		defer close(ch)
		ticker := time.NewTicker(f.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current, pair := f.raw()
				if bytes.Equal(current, last) {
					continue
				}
				last = current
				select {
				case ch <- pair:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// read returns the stored pair, treating a missing or corrupt file as empty.
// Corruption is not an auth decision: the controller will simply see no
// tokens and drop to anonymous.
func (f *File) read() (Pair, error) {
	_, pair := f.raw()
	return pair, nil
}

func (f *File) raw() ([]byte, Pair) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, Pair{}
	}
	var pair Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		return data, Pair{}
	}
	return data, pair
}
