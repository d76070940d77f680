// Package evidence defines context chunks, their provenance, and the merge
// rule pairing internal similarity hits with external live data.
package evidence

// Provenance describes where the contexts handed to the synthesizer came
// from.
type Provenance string

const (
	ProvenanceInternal Provenance = "internal"
	ProvenanceExternal Provenance = "external"
	ProvenanceMixed    Provenance = "mixed"
	ProvenanceNone     Provenance = "none"
)

// Chunk is one unit of evidence. Internal chunks carry a similarity distance
// from the index (lower = more relevant); external chunks carry none and are
// treated as authoritative current data.
type Chunk struct {
	Text     string
	Source   Provenance
	Distance float64
}

// Internal wraps text and distance as an internal chunk.
func Internal(text string, distance float64) Chunk {
	return Chunk{Text: text, Source: ProvenanceInternal, Distance: distance}
}

// External wraps text as an external chunk.
func External(text string) Chunk {
	return Chunk{Text: text, Source: ProvenanceExternal}
}

// Texts extracts the chunk texts in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.Text)
	}
	return out
}

// Merge pairs internal and external evidence into one ordered context list.
// Internal chunks precede external chunks; neither side is ever dropped.
// It is a pure pairing function with no I/O and no failure modes.
func Merge(internal, external []Chunk) ([]Chunk, Provenance) {
	switch {
	case len(internal) > 0 && len(external) > 0:
		merged := make([]Chunk, 0, len(internal)+len(external))
		merged = append(merged, internal...)
		merged = append(merged, external...)
		return merged, ProvenanceMixed
	case len(internal) > 0:
		return internal, ProvenanceInternal
	case len(external) > 0:
		return external, ProvenanceExternal
	default:
		return []Chunk{}, ProvenanceNone
	}
}
