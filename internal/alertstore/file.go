package alertstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FileKV persists timestamps as a JSON object in a single file.
// The whole file is rewritten on every mutation.
type FileKV struct {
	mu       sync.Mutex
	filePath string
	data     map[string]time.Time
}

// NewFileKV loads the file, starting empty if it does not exist.
func NewFileKV(filePath string) (*FileKV, error) {
	data, err := loadFile(filePath)
	if err != nil {
		return nil, err
	}
	return &FileKV{filePath: filePath, data: data}, nil
}

func loadFile(filePath string) (map[string]time.Time, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]time.Time), nil
		}
		return nil, fmt.Errorf("read alert file: %w", err)
	}
	data := make(map[string]time.Time)
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode alert file: %w", err)
	}
	return data, nil
}

func (f *FileKV) save() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(f.filePath, raw, 0644)
}

func (f *FileKV) Get(_ context.Context, symbol string) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.data[symbol]
	return t, ok, nil
}

func (f *FileKV) Set(_ context.Context, symbol string, createdAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.data[symbol]
	f.data[symbol] = createdAt
	if err := f.save(); err != nil {
		if had {
			f.data[symbol] = prev
		} else {
			delete(f.data, symbol)
		}
		return fmt.Errorf("save alert file: %w", err)
	}
	return nil
}

func (f *FileKV) Delete(_ context.Context, symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.data[symbol]
	if !had {
		return nil
	}
	delete(f.data, symbol)
	if err := f.save(); err != nil {
		f.data[symbol] = prev
		return fmt.Errorf("save alert file: %w", err)
	}
	return nil
}

func (f *FileKV) Keys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
