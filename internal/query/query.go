// Package query translates loosely-typed list request parameters
// (where/sort/select/skip/limit/count) into a validated, store-agnostic
// query descriptor. Parse failures name the offending parameter; missing
// parameters are treated as absent.
package query

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/aidar/task-tracker/internal/domain"
)

// RevisionField is the internal version field excluded by the default projection.
const RevisionField = "revision"

// Collection carries per-collection translation defaults.
type Collection struct {
	Name         string
	DefaultLimit int // 0 means unlimited
}

// Предопределенные коллекции сервиса
var (
	Users = Collection{Name: "users"}
	Tasks = Collection{Name: "tasks", DefaultLimit: 100}
)

// SortField is a single ordering term; terms keep the order they appeared in.
type SortField struct {
	Field string
	Desc  bool
}

// Descriptor is the validated output of ParseList, ready for store execution.
type Descriptor struct {
	Filter     map[string]any
	Sort       []SortField
	Projection Projection
	Skip       int
	Limit      int // 0 means unlimited
	CountOnly  bool
}

// ParseList builds a Descriptor from raw URL query values. Count mode
// short-circuits: only the filter survives, everything else is ignored.
func ParseList(values url.Values, coll Collection) (*Descriptor, error) {
	filter, err := parseWhere(values.Get("where"))
	if err != nil {
		return nil, err
	}

	if values.Get("count") == "true" {
		return &Descriptor{Filter: filter, CountOnly: true}, nil
	}

	sort, err := parseSort(values.Get("sort"))
	if err != nil {
		return nil, err
	}

	projection, err := parseSelect(values.Get("select"))
	if err != nil {
		return nil, err
	}

	d := &Descriptor{
		Filter:     filter,
		Sort:       sort,
		Projection: projection,
		Skip:       parseNonNegative(values.Get("skip"), 0),
		Limit:      parseNonNegative(values.Get("limit"), coll.DefaultLimit),
	}
	return d, nil
}

func parseWhere(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var filter map[string]any
	if err := json.Unmarshal([]byte(raw), &filter); err != nil {
		return nil, domain.NewInvalidQueryParameter("where")
	}
	return filter, nil
}

// parseSort decodes the sort document token by token to preserve the order
// of its keys, which encoding/json drops when unmarshalling into a map.
func parseSort(raw string) ([]SortField, error) {
	if raw == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, domain.NewInvalidQueryParameter("sort")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, domain.NewInvalidQueryParameter("sort")
	}

	var fields []SortField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, domain.NewInvalidQueryParameter("sort")
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, domain.NewInvalidQueryParameter("sort")
		}
		valTok, err := dec.Token()
		if err != nil {
			return nil, domain.NewInvalidQueryParameter("sort")
		}
		num, ok := valTok.(json.Number)
		if !ok {
			return nil, domain.NewInvalidQueryParameter("sort")
		}
		dir, err := num.Float64()
		if err != nil {
			return nil, domain.NewInvalidQueryParameter("sort")
		}
		fields = append(fields, SortField{Field: key, Desc: dir < 0})
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return nil, domain.NewInvalidQueryParameter("sort")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) { // trailing garbage
		return nil, domain.NewInvalidQueryParameter("sort")
	}
	return fields, nil
}

func parseSelect(raw string) (Projection, error) {
	if raw == "" {
		return DefaultProjection(), nil
	}
	var spec map[string]any
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return Projection{}, domain.NewInvalidQueryParameter("select")
	}

	p := Projection{include: map[string]bool{}, exclude: map[string]bool{}}
	for field, v := range spec {
		flag, ok := v.(float64)
		if !ok {
			return Projection{}, domain.NewInvalidQueryParameter("select")
		}
		if flag != 0 {
			p.include[field] = true
		} else {
			p.exclude[field] = true
		}
	}
	return p, nil
}

// parseNonNegative treats negative and non-numeric values as absent.
func parseNonNegative(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
