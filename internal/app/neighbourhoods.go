package app

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"airbnb_eda/internal/domain"
)

// ParseNeighbourhoods reads the semicolon-delimited lookup table. The first row
// is a header. Each row is either "N - Name" or "N;Name". Files that are not
// valid UTF-8 are decoded as Latin-1.
func ParseNeighbourhoods(r io.Reader) ([]domain.Neighbourhood, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read neighbourhoods: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		if raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw); err != nil {
			return nil, fmt.Errorf("decode neighbourhoods: %w", err)
		}
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse neighbourhoods: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: neighbourhoods file has no rows", domain.ErrSchema)
	}

	out := make([]domain.Neighbourhood, 0, len(records)-1)
	for i, rec := range records[1:] {
		var (
			nb  domain.Neighbourhood
			err error
		)
		switch {
		case len(rec) >= 2 && strings.TrimSpace(rec[1]) != "":
			nb.Code, err = strconv.Atoi(strings.TrimSpace(rec[0]))
			nb.Name = strings.TrimSpace(rec[1])
			nb.Label = fmt.Sprintf("%d - %s", nb.Code, nb.Name)
		case len(rec) >= 1 && strings.TrimSpace(rec[0]) != "":
			nb.Label = strings.TrimSpace(rec[0])
			nb.Code, err = LeadingInt(nb.Label)
			nb.Name = strings.TrimLeft(strings.TrimLeft(nb.Label, "0123456789"), " -")
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: neighbourhoods row %d: %v", domain.ErrSchema, i+2, err)
		}
		out = append(out, nb)
	}
	return out, nil
}

func LoadNeighbourhoodsFile(path string) ([]domain.Neighbourhood, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseNeighbourhoods(f)
}
