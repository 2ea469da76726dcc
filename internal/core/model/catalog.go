package model

// CatalogEntry is the static knowledge-base record for one class label.
type CatalogEntry struct {
	ClassName   string   `json:"className" yaml:"className"`
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Damage      string   `json:"damage" yaml:"damage"`
	Solutions   []string `json:"solutions" yaml:"solutions"`
}
