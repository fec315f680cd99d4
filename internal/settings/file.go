package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
	"go.uber.org/zap"
)

// FileStore keeps settings in a JSON object file, one entry per key
type FileStore struct {
	filePath string
	key      string
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewFileStore creates a store backed by filePath
func NewFileStore(filePath, key string, logger *zap.Logger) *FileStore {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{filePath: filePath, key: key, logger: logger}
}

// Load reads the settings entry
func (f *FileStore) Load(_ context.Context) receiptformat.CompanySettings {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := f.load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("Failed to read settings, using defaults", zap.String("path", f.filePath), zap.Error(err))
		}
		return Default()
	}

	raw, ok := data[f.key]
	if !ok {
		return Default()
	}

	s, err := decode(raw)
	if err != nil {
		f.logger.Warn("Failed to decode settings, using defaults", zap.String("key", f.key), zap.Error(err))
		return Default()
	}
	return s
}

// Save writes the settings entry, keeping any other keys in the file
func (f *FileStore) Save(_ context.Context, s receiptformat.CompanySettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// A corrupt file is replaced rather than blocking the save
	data, err := f.load()
	if err != nil {
		data = make(map[string]json.RawMessage)
	}

	raw, err := encode(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	data[f.key] = raw

	return f.save(data)
}

func (f *FileStore) load() (map[string]json.RawMessage, error) {
	content, err := os.ReadFile(f.filePath)
	if err != nil {
		return nil, err
	}

	data := make(map[string]json.RawMessage)
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (f *FileStore) save(data map[string]json.RawMessage) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(f.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}
	return os.WriteFile(f.filePath, content, 0644)
}
