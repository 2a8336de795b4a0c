// Package knowledge holds the government scheme documents the scheme flow
// answers from, and a small keyword search over them.
package knowledge

import "fmt"

// Scope is the level of government that runs a scheme.
type Scope string

const (
	ScopeCentral  Scope = "Central"
	ScopeState    Scope = "State"
	ScopeDistrict Scope = "District"
)

// Document is one scheme description.
type Document struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Scope    Scope    `json:"scope"`
	State    string   `json:"state,omitempty"`
	District string   `json:"district,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Validate checks the fields every document needs.
func (d Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("document id is required")
	}
	if d.Title == "" || d.Content == "" {
		return fmt.Errorf("document %s: title and content are required", d.ID)
	}
	switch d.Scope {
	case ScopeCentral:
	case ScopeState:
		if d.State == "" {
			return fmt.Errorf("document %s: state scope needs a state", d.ID)
		}
	case ScopeDistrict:
		if d.State == "" || d.District == "" {
			return fmt.Errorf("document %s: district scope needs a state and district", d.ID)
		}
	default:
		return fmt.Errorf("document %s: unknown scope %q", d.ID, d.Scope)
	}
	return nil
}

// AppliesTo reports whether a farmer from state/district can use the scheme.
// Blank farmer fields match everything.
func (d Document) AppliesTo(state, district string) bool {
	if d.State != "" && state != "" && !equalFold(d.State, state) {
		return false
	}
	if d.District != "" && district != "" && !equalFold(d.District, district) {
		return false
	}
	return true
}

// Store is the read side the scheme service depends on.
type Store interface {
	Get(id string) (Document, error)
	List() []Document
	Search(query, state, district string, limit int) []Document
}
