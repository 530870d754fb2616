package query

// Projection decides which document fields survive into the response.
// Supplied projections are applied verbatim: inclusive when any field is
// selected with 1, exclusive otherwise. The default projection only strips
// the internal revision field.
type Projection struct {
	defaulted bool
	include   map[string]bool
	exclude   map[string]bool
}

// DefaultProjection excludes the internal revision field and nothing else.
func DefaultProjection() Projection {
	return Projection{defaulted: true}
}

// NewProjection builds a projection from a field→0/1 specification.
func NewProjection(spec map[string]int) Projection {
	p := Projection{include: map[string]bool{}, exclude: map[string]bool{}}
	for field, flag := range spec {
		if flag != 0 {
			p.include[field] = true
		} else {
			p.exclude[field] = true
		}
	}
	return p
}

// Apply returns a copy of doc with the projection applied. The id field is
// kept in inclusive mode unless explicitly selected with 0.
func (p Projection) Apply(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))

	if p.defaulted {
		for k, v := range doc {
			if k == RevisionField {
				continue
			}
			out[k] = v
		}
		return out
	}

	if len(p.include) > 0 {
		for k := range p.include {
			if v, ok := doc[k]; ok {
				out[k] = v
			}
		}
		if !p.exclude["id"] {
			if v, ok := doc["id"]; ok {
				out["id"] = v
			}
		}
		return out
	}

	for k, v := range doc {
		if p.exclude[k] {
			continue
		}
		out[k] = v
	}
	return out
}
