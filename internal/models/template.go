package models

// SectionSpec describes one section of a media type template
type SectionSpec struct {
	Name        string `toml:"name" yaml:"name"`
	Description string `toml:"description" yaml:"description"`
	Required    bool   `toml:"required" yaml:"required"`
}

// ToneConfig describes the writing voice for a media type
type ToneConfig struct {
	Voice    string `toml:"voice" yaml:"voice"`
	Style    string `toml:"style" yaml:"style"`
	Audience string `toml:"audience" yaml:"audience"`
}

// MediaTemplate describes the structure and tone of one media type
type MediaTemplate struct {
	Name        string        `toml:"name" yaml:"name"`
	DisplayName string        `toml:"display_name" yaml:"display_name"`
	Sections    []SectionSpec `toml:"sections" yaml:"sections"`
	Tone        ToneConfig    `toml:"tone" yaml:"tone"`
}

// SectionNames returns the names of all sections in template order
func (t *MediaTemplate) SectionNames() []string {
	names := make([]string, 0, len(t.Sections))
	for _, s := range t.Sections {
		names = append(names, s.Name)
	}
	return names
}

// RequiredSectionNames returns the names of required sections only
func (t *MediaTemplate) RequiredSectionNames() []string {
	names := make([]string, 0, len(t.Sections))
	for _, s := range t.Sections {
		if s.Required {
			names = append(names, s.Name)
		}
	}
	return names
}
