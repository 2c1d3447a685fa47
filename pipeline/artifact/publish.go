package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

type pending struct {
	path string
	data []byte
	tmp  string
}

// Batch publishes several artifacts together. Every file is first written to
// a temporary sibling; only when all writes succeed are they renamed into
// place, so a failed stage leaves no partial artifact behind.
type Batch struct {
	items []pending
}

// Add queues data for publication at path.
func (b *Batch) Add(path string, data []byte) {
	b.items = append(b.items, pending{path: path, data: data})
}

// Commit writes and publishes the queued artifacts.
func (b *Batch) Commit() error {
	for i := range b.items {
		if err := b.stage(&b.items[i]); err != nil {
			b.discard()
			return err
		}
	}
	for i, it := range b.items {
		if err := os.Rename(it.tmp, it.path); err != nil {
			b.discardFrom(i)
			return fmt.Errorf("publishing %s: %w", it.path, err)
		}
	}
	b.items = nil
	return nil
}

func (b *Batch) stage(it *pending) error {
	dir := filepath.Dir(it.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(it.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("staging %s: %w", it.path, err)
	}
	it.tmp = f.Name()
	if _, err := f.Write(it.data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", it.path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("syncing %s: %w", it.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", it.path, err)
	}
	return nil
}

func (b *Batch) discard() { b.discardFrom(0) }

func (b *Batch) discardFrom(i int) {
	for _, it := range b.items[i:] {
		if it.tmp != "" {
			_ = os.Remove(it.tmp)
		}
	}
	b.items = nil
}
