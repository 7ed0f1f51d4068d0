package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// CSVSource reads the dataset from a CSV file with a header row.
type CSVSource struct {
	Path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Describe() string { return "csv:" + s.Path }

func (s *CSVSource) Load(_ context.Context) (*Frame, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrDataUnavailable, s.Path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrDataUnavailable, s.Path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a header row followed by records.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv", ErrDataUnavailable)
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return NewFrame(header, rows), nil
}
