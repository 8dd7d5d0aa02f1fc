package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ToolPolicy is the per-tool entry of a policy document.
type ToolPolicy struct {
	// Allow overrides the document's default_allow when present.
	Allow          *bool       `yaml:"allow" json:"allow,omitempty"`
	RequireConfirm bool        `yaml:"require_confirm" json:"require_confirm"`
	Conditions     *Conditions `yaml:"conditions" json:"conditions,omitempty"`
}

// Conditions narrow an allowed tool to specific callers, hosts, time
// windows, and inputs. Empty lists impose no constraint.
type Conditions struct {
	Users      []string `yaml:"users" json:"users,omitempty"`
	Hosts      []string `yaml:"hosts" json:"hosts,omitempty"`
	HoursAllow []string `yaml:"hours_allow" json:"hours_allow,omitempty"`
	PathsAllow []string `yaml:"paths_allow" json:"paths_allow,omitempty"`
	PathsDeny  []string `yaml:"paths_deny" json:"paths_deny,omitempty"`
	NamesAllow []string `yaml:"names_allow" json:"names_allow,omitempty"`
}

// Document is a loaded policy. It is immutable for the lifetime of one
// request evaluation; callers reload per evaluation rather than caching.
type Document struct {
	DefaultAllow bool                  `yaml:"default_allow" json:"default_allow"`
	Tools        map[string]ToolPolicy `yaml:"tools" json:"tools"`
}

// DefaultDocument returns the built-in permissive policy used when no
// policy file exists.
func DefaultDocument() *Document {
	return &Document{
		DefaultAllow: true,
		Tools:        map[string]ToolPolicy{},
	}
}

// Load reads a policy document from a YAML file. A missing file returns
// the defaults; invalid YAML is an error so callers fail closed rather
// than running with a half-read policy.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDocument(), nil
		}
		return nil, fmt.Errorf("read policy: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields.
	doc := DefaultDocument()
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if doc.Tools == nil {
		doc.Tools = map[string]ToolPolicy{}
	}
	return doc, nil
}
