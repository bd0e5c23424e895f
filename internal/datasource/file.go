package datasource

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// FileSource reads extraction output files from a small set of candidate
// directories. The first .json or .csv file found wins; JSON files are
// parsed whole, CSV files row-wise against the header.
type FileSource struct {
	dirs []string
}

// NewFileSource creates a source over the candidate directories.
func NewFileSource(dirs []string) *FileSource {
	return &FileSource{dirs: dirs}
}

// Fetch looks for output files under <dir>/<extractionID> and then the
// candidate directory itself.
func (s *FileSource) Fetch(ctx context.Context, extractionID string) ([]models.RawRecord, error) {
	for _, dir := range s.dirs {
		for _, candidate := range []string{filepath.Join(dir, extractionID), dir} {
			path, err := firstDataFile(candidate)
			if err != nil {
				continue
			}
			records, err := parseFile(path)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			if len(records) > 0 {
				return records, nil
			}
		}
	}
	return nil, ErrNoData
}

// firstDataFile returns the lexically first .json or .csv file in dir.
func firstDataFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".json" || ext == ".csv" {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", ErrNoData
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

func parseFile(path string) ([]models.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(f)
	case ".csv":
		return parseCSV(f)
	default:
		return nil, fmt.Errorf("unsupported file type %s", filepath.Ext(path))
	}
}

func parseJSON(r io.Reader) ([]models.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var records []models.RawRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	// Some exports wrap the batch in an object.
	var wrapper struct {
		Records []models.RawRecord `json:"records"`
		Events  []models.RawRecord `json:"events"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decode json batch: %w", err)
	}
	if len(wrapper.Records) > 0 {
		return wrapper.Records, nil
	}
	return wrapper.Events, nil
}

func parseCSV(r io.Reader) ([]models.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var records []models.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		record := make(models.RawRecord, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}
