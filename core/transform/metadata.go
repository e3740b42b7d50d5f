package transform

// HeaderRecord is one heading found by analysis, in document order.
// CustomLevel starts equal to Level and is the only field callers change.
type HeaderRecord struct {
	Level       int    `json:"level"`
	Text        string `json:"text"`
	CustomLevel int    `json:"customLevel"`
}

// HeaderTransformEntry pairs a HeaderRecord (same index) with what is
// needed to find and re-level the heading in a later parse.
type HeaderTransformEntry struct {
	Ref           HeaderRef `json:"ref"`
	Preview       string    `json:"preview"`
	CurrentLevel  int       `json:"currentLevel"`
	ProposedLevel int       `json:"proposedLevel"`
}

// ListEntry records the preserved numbering of one ordered-list item.
type ListEntry struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Text   string `json:"text"`
}

// Metadata is everything a Manager knows about its document. It is created
// empty, filled by Analyze, changed field by field by UpdateHeaderLevel and
// read by ApplyTransformations and the JSON builders.
type Metadata struct {
	OriginalContent   string                 `json:"-"`
	Headers           []HeaderRecord         `json:"headers"`
	HeaderTransforms  []HeaderTransformEntry `json:"headerTransforms"`
	Lists             []ListEntry            `json:"lists"`
	DocumentStructure *Structure             `json:"documentStructure,omitempty"`

	analyzed bool
}

// clone returns a copy that shares no slices with m.
func (m *Metadata) clone() Metadata {
	out := Metadata{
		OriginalContent:   m.OriginalContent,
		Headers:           append([]HeaderRecord(nil), m.Headers...),
		HeaderTransforms:  append([]HeaderTransformEntry(nil), m.HeaderTransforms...),
		Lists:             append([]ListEntry(nil), m.Lists...),
		DocumentStructure: m.DocumentStructure,
		analyzed:          m.analyzed,
	}
	return out
}

func (m *Metadata) resetInventory() {
	m.Headers = nil
	m.HeaderTransforms = nil
	m.Lists = nil
	m.DocumentStructure = nil
	m.analyzed = false
}

func (m *Metadata) updateHeaderLevel(index, level int) bool {
	if index < 0 || index >= len(m.Headers) || !validLevel(level) {
		return false
	}
	m.Headers[index].CustomLevel = level
	if index < len(m.HeaderTransforms) {
		m.HeaderTransforms[index].ProposedLevel = level
	}
	return true
}
