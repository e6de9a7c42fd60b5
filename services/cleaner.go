package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"villa-importer/config"
	"villa-importer/models"
	"villa-importer/utils"
)

// Cleaner normalizes loaded records and applies the duplicate id policy.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean returns normalized copies of records with the duplicate policy
// applied, plus how many records the policy dropped. The input slice is not
// modified.
//
// Under DuplicatesReject any repeated id yields a ValidationError naming
// every index it appears at. Under DuplicatesLastWins only the last
// occurrence of each id is kept, at its own position.
func (c *Cleaner) Clean(records []models.ListingRecord, policy string) ([]models.ListingRecord, int, error) {
	positions := make(map[string][]int, len(records))
	for _, r := range records {
		positions[r.ID] = append(positions[r.ID], r.Index)
	}

	if policy != config.DuplicatesLastWins {
		var problems []Problem
		reported := utils.NewIDSet()
		for _, r := range records {
			idx := positions[r.ID]
			if len(idx) < 2 || !reported.Add(r.ID) {
				continue
			}
			problems = append(problems, Problem{
				Index:  idx[0],
				ID:     r.ID,
				Reason: "duplicate id, also at " + joinInts(idx[1:]),
			})
		}
		if len(problems) > 0 {
			return nil, 0, &ValidationError{Problems: problems}
		}
	}

	result := make([]models.ListingRecord, 0, len(records))
	for _, r := range records {
		idx := positions[r.ID]
		if idx[len(idx)-1] != r.Index {
			c.logger.Debug("[cleaner] Duplicate id %q at record %d superseded by record %d",
				r.ID, r.Index, idx[len(idx)-1])
			continue
		}

		fields := normaliseFields(r.Fields)
		fields["id"] = r.ID
		result = append(result, models.ListingRecord{ID: r.ID, Index: r.Index, Fields: fields})
	}

	dropped := len(records) - len(result)
	if dropped > 0 {
		c.logger.Warn("[cleaner] Dropped %d duplicate record(s), last occurrence wins", dropped)
	}
	c.logger.Info("[cleaner] Cleaned %d → %d records", len(records), len(result))
	return result, dropped, nil
}

// normaliseID strips leading/trailing whitespace.
func normaliseID(s string) string {
	return strings.TrimSpace(s)
}

func normaliseFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normaliseValue(v)
	}
	return out
}

// normaliseValue converts json.Number into int64 when the value is an
// integer that fits, otherwise float64, recursing into objects and arrays.
func normaliseValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		return parseNumber(t)
	case map[string]any:
		return normaliseFields(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normaliseValue(e)
		}
		return out
	default:
		return v
	}
}

func parseNumber(n json.Number) any {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil || math.IsInf(f, 0) {
		return n.String()
	}
	return f
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
