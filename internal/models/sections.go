package models

// SectionMap is an insertion-ordered map of section name to section content.
// Article sections must render in the order they were produced, so plain Go
// maps are not suitable.
type SectionMap struct {
	keys   []string
	values map[string]string
}

// NewSectionMap creates an empty SectionMap
func NewSectionMap() *SectionMap {
	return &SectionMap{
		values: make(map[string]string),
	}
}

// Set stores content under name. The first Set of a name fixes its position;
// later Sets overwrite content in place.
func (m *SectionMap) Set(name, content string) {
	if _, exists := m.values[name]; !exists {
		m.keys = append(m.keys, name)
	}
	m.values[name] = content
}

// Get returns the content for name and whether it exists
func (m *SectionMap) Get(name string) (string, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Value returns the content for name, or "" when absent
func (m *SectionMap) Value(name string) string {
	return m.values[name]
}

// Has reports whether name is present
func (m *SectionMap) Has(name string) bool {
	_, ok := m.values[name]
	return ok
}

// Delete removes name while preserving the order of the remaining keys
func (m *SectionMap) Delete(name string) {
	if _, ok := m.values[name]; !ok {
		return
	}
	delete(m.values, name)
	for i, k := range m.keys {
		if k == name {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns section names in insertion order
func (m *SectionMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of sections
func (m *SectionMap) Len() int {
	return len(m.keys)
}

// Clone returns a deep copy
func (m *SectionMap) Clone() *SectionMap {
	out := NewSectionMap()
	for _, k := range m.keys {
		out.Set(k, m.values[k])
	}
	return out
}

// MergeSections overlays parsed content onto a base map. Every key of base
// is kept in order; a non-empty overlay value replaces the base value.
// Overlay-only keys are appended after the base keys. Neither input is
// modified.
func MergeSections(base, overlay *SectionMap) *SectionMap {
	merged := base.Clone()
	if overlay == nil {
		return merged
	}
	for _, k := range overlay.Keys() {
		if v := overlay.Value(k); v != "" {
			merged.Set(k, v)
		}
	}
	return merged
}
