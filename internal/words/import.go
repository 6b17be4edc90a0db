// Package words holds the word-sourcing collaborators: tabular import and
// curated categories.
package words

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

const maxWordLen = 100

var ErrNoWords = errors.New("no usable words in file")

// Category is a curated, named word list maintained outside any room.
type Category struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Icon  string   `json:"icon,omitempty"`
	Words []string `json:"words"`
}

// ImportCSV reads words from the first column of a CSV stream: trimmed,
// de-duplicated, empty and oversized entries skipped, capped at max entries.
func ImportCSV(r io.Reader, max int) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // rows may have ragged widths

	out := make([]string, 0, max)
	seen := make(map[string]struct{})

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}

		word := strings.TrimSpace(record[0])
		if word == "" || utf8.RuneCountInString(word) > maxWordLen {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
		if len(out) == max {
			break
		}
	}

	if len(out) == 0 {
		return nil, ErrNoWords
	}
	return out, nil
}
