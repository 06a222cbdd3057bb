package artifact

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCSV parses extractor output into a raw bundle. The first row is a
// header; the first column of every row is the track id and the rest are
// float features.
func ReadCSV(r io.Reader) (*Bundle, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("artifact: csv is empty")
		}
		return nil, fmt.Errorf("artifact: csv header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("artifact: csv header has %d columns, need an id and at least one feature", len(header))
	}

	dim := len(header) - 1
	b := &Bundle{
		Kind:     KindRaw,
		Dim:      dim,
		Features: make([]string, dim),
	}
	for i, name := range header[1:] {
		b.Features[i] = strings.TrimSpace(name)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("artifact: csv: %w", err)
		}

		line, _ := cr.FieldPos(0)
		b.IDs = append(b.IDs, strings.TrimSpace(rec[0]))
		for j, field := range rec[1:] {
			f, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
			if err != nil {
				return nil, fmt.Errorf("artifact: csv line %d column %q: %w", line, b.Features[j], err)
			}
			b.Vectors = append(b.Vectors, float32(f))
		}
	}

	return b, nil
}
