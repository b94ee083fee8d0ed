package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"liscraper/pkg/logger"
	"liscraper/pkg/models"
)

// CSV appends records to a single CSV file with a fixed header.
type CSV struct {
	path   string
	file   *os.File
	writer *csv.Writer
	logger logger.Logger
	rows   int
}

// Create creates a fresh CSV file under dir, named from the pattern, and
// writes the header row. Supported pattern placeholders: {timestamp}, {date}.
func Create(dir, pattern string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	name := expandPattern(pattern)
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}

	s := &CSV{
		path:   path,
		file:   file,
		writer: csv.NewWriter(file),
		logger: logger.GetLogger(),
	}
	if err := s.writeHeader(); err != nil {
		file.Close()
		os.Remove(path)
		return nil, err
	}

	s.logger.InfoWithFields("CSV sink created", map[string]interface{}{
		"path": path,
	})
	return s, nil
}

// Open reopens an existing CSV file in append mode, for resumed runs. The
// header is assumed present; missing files are an error so the caller can
// fall back to a fresh sink.
func Open(path string) (*CSV, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat CSV file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("CSV path %q is a directory", path)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}

	s := &CSV{
		path:   path,
		file:   file,
		writer: csv.NewWriter(file),
		logger: logger.GetLogger(),
	}
	s.logger.InfoWithFields("CSV sink reopened", map[string]interface{}{
		"path": path,
	})
	return s, nil
}

func (s *CSV) writeHeader() error {
	if err := s.writer.Write(models.CSVHeader()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV header: %w", err)
	}
	return s.file.Sync()
}

// Path returns the full path of the backing file.
func (s *CSV) Path() string {
	return s.path
}

// Filename returns the base name of the backing file, as recorded in the
// checkpoint.
func (s *CSV) Filename() string {
	return filepath.Base(s.path)
}

// Append writes the batch and forces it to disk. On error nothing may be
// treated as committed: the caller must not mark the batch's fingerprints
// processed.
func (s *CSV) Append(records []models.Record) error {
	for _, r := range records {
		if err := s.writer.Write(r.CSVRow()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV rows: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync CSV file: %w", err)
	}
	s.rows += len(records)

	s.logger.DebugWithFields("Batch appended to CSV", map[string]interface{}{
		"rows":       len(records),
		"total_rows": s.rows,
	})
	return nil
}

// Close flushes and closes the backing file.
func (s *CSV) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}
	return s.file.Close()
}

func expandPattern(pattern string) string {
	if pattern == "" {
		pattern = "profiles_{timestamp}.csv"
	}
	now := time.Now()
	name := strings.ReplaceAll(pattern, "{timestamp}", fmt.Sprintf("%d", now.Unix()))
	name = strings.ReplaceAll(name, "{date}", now.Format("2006-01-02"))
	if !strings.HasSuffix(name, ".csv") {
		name += ".csv"
	}
	return name
}
