package domain

// Author represents a person. One document per person, no matter how
// many ways the source catalogs spell them.
type Author struct {
	Meta
	Name           string   `json:"name"`
	AlternateNames []string `json:"alternate_names,omitempty"`
	BirthYear      int      `json:"birth_year,omitempty"`
	DeathYear      int      `json:"death_year,omitempty"`
}

// HasAlternateName reports whether name is already present, by exact
// string, in the author's alternate names.
func (a *Author) HasAlternateName(name string) bool {
	for _, alt := range a.AlternateNames {
		if alt == name {
			return true
		}
	}
	return false
}

// AddAlternateName appends name unless it is already present.
// Returns true if the list changed.
func (a *Author) AddAlternateName(name string) bool {
	if name == "" || a.HasAlternateName(name) {
		return false
	}
	a.AlternateNames = append(a.AlternateNames, name)
	return true
}
