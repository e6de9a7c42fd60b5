package services

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"villa-importer/models"
)

// LoadRecords reads the JSON array at path and returns one record per
// element, in file order. The file is opened read-only.
func LoadRecords(path string) ([]models.ListingRecord, error) {
	if path == "" {
		return nil, &InputError{Path: path, Err: errors.New("no input path given")}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer f.Close()

	records, err := decodeRecords(bufio.NewReader(f))
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, &InputError{Path: path, Err: err}
	}
	return records, nil
}

// decodeRecords parses a top-level JSON array of objects and validates ids.
// Numbers are kept as json.Number for the cleaner to normalize.
func decodeRecords(r io.Reader) ([]models.ListingRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var elems []json.RawMessage
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file, expected a JSON array")
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("expected a top-level JSON array, found %v", describeToken(tok))
	}
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse element %d: %w", len(elems), err)
		}
		elems = append(elems, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the top-level array")
	}

	records := make([]models.ListingRecord, 0, len(elems))
	var problems []Problem

	for i, raw := range elems {
		fields, ok := decodeObject(raw)
		if !ok {
			problems = append(problems, Problem{Index: i, Reason: "element is not a JSON object"})
			continue
		}

		id, reason := recordID(fields)
		if reason != "" {
			problems = append(problems, Problem{Index: i, ID: id, Reason: reason})
			continue
		}

		if key := outOfRangeNumber(fields, ""); key != "" {
			problems = append(problems, Problem{Index: i, ID: id, Reason: "number out of range at " + key})
			continue
		}

		records = append(records, models.ListingRecord{ID: id, Index: i, Fields: fields})
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Total: len(elems), Problems: problems}
	}
	return records, nil
}

// outOfRangeNumber returns the path of the first number that does not fit in
// a float64, or "" when every number fits.
func outOfRangeNumber(v any, path string) string {
	switch t := v.(type) {
	case json.Number:
		if _, err := strconv.ParseFloat(t.String(), 64); err != nil {
			return path
		}
	case map[string]any:
		for k, e := range t {
			child := k
			if path != "" {
				child = path + "." + k
			}
			if bad := outOfRangeNumber(e, child); bad != "" {
				return bad
			}
		}
	case []any:
		for i, e := range t {
			if bad := outOfRangeNumber(e, fmt.Sprintf("%s[%d]", path, i)); bad != "" {
				return bad
			}
		}
	}
	return ""
}

func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, false
	}
	return fields, true
}

// recordID extracts the document id. A non-empty reason means the record
// has no usable id.
func recordID(fields map[string]any) (string, string) {
	v, ok := fields["id"]
	if !ok || v == nil {
		return "", "missing id"
	}
	id, ok := v.(string)
	if !ok {
		return fmt.Sprint(v), "id must be a string"
	}
	id = normaliseID(id)
	if id == "" {
		return "", "id is empty"
	}
	if strings.Contains(id, "/") {
		return id, "id must not contain '/'"
	}
	return id, ""
}

func describeToken(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		return "'" + t.String() + "'"
	case string:
		return "a string"
	case json.Number, float64:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", tok)
}
