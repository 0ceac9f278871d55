package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Countries lists the distinct non-empty country names in the source, sorted.
// The returned slice is never nil: an unreadable source yields an empty listing
// and the reason is reported through the error.
func Countries(path string, opt SourceOptions) ([]string, error) {
	rows, err := readRows(path, opt)
	if err != nil {
		return []string{}, err
	}
	out, err := countriesFromRows(rows)
	if err != nil {
		return out, &SourceError{Path: path, Err: err}
	}
	return out, nil
}

func countriesFromRows(rows [][]string) ([]string, error) {
	out := []string{}
	if len(rows) == 0 {
		return out, nil
	}
	idx := -1
	for i, h := range rows[0] {
		if trimHeader(h) == ColCountry {
			idx = i
			break
		}
	}
	if idx < 0 {
		return out, fmt.Errorf("missing required column %q", ColCountry)
	}
	seen := map[string]struct{}{}
	for _, rec := range rows[1:] {
		if idx >= len(rec) {
			continue
		}
		name := strings.TrimSpace(rec[idx])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
