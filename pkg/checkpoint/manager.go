package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"liscraper/pkg/logger"
)

// Manager handles checkpoint persistence at a fixed path.
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a manager writing to the given file path, creating the
// parent directory if needed.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &Manager{
		path:   path,
		logger: logger.GetLogger(),
	}, nil
}

// Path returns the backing file path.
func (m *Manager) Path() string {
	return m.path
}

// Exists checks if a checkpoint file exists.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Load reads the persisted checkpoint. A missing file yields the zero-value
// default; a parse failure is logged and also yields the default, never an
// error. Collection must be able to start regardless of checkpoint health.
func (m *Manager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		m.logger.WithError(err).WithField("path", m.path).Warn("Checkpoint unreadable, starting fresh")
		return New(), nil
	}

	cp := New()
	if err := json.Unmarshal(data, cp); err != nil {
		m.logger.WithError(err).WithField("path", m.path).Warn("Checkpoint corrupt, starting fresh")
		return New(), nil
	}
	if cp.ProcessedProfileIDs == nil {
		cp.ProcessedProfileIDs = []string{}
	}
	cp.reindex()

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"path":          m.path,
		"last_index":    cp.LastProfileIndex,
		"csv_filename":  cp.CSVFilename,
		"processed_ids": len(cp.ProcessedProfileIDs),
	})
	return cp, nil
}

// Save writes the whole checkpoint atomically, truncating the fingerprint set
// to its most recent MaxProcessedIDs entries first.
func (m *Manager) Save(cp *Checkpoint) error {
	cp.truncate(MaxProcessedIDs)

	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"last_index":    cp.LastProfileIndex,
		"processed_ids": len(cp.ProcessedProfileIDs),
	})
	return nil
}

// Clear deletes the backing file. Called only after the harvester reaches its
// terminal state with no errors.
func (m *Manager) Clear() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.logger.Info("Checkpoint deleted")
	return nil
}
