// Package appregistry reconciles on-disk application manifests with
// persistent application rows per tenant and drives menu synthesis plus
// route mounting on controlled reload.
package appregistry

import (
	"encoding/json"
	"fmt"
)

// MenuNode is one node of a manifest menu tree. Leaves carry a path;
// branches may omit it.
type MenuNode struct {
	Title      string     `json:"title"`
	Path       string     `json:"path,omitempty"`
	Icon       string     `json:"icon,omitempty"`
	Permission string     `json:"permission,omitempty"`
	SortOrder  *int       `json:"sort_order,omitempty"`
	Children   []MenuNode `json:"children,omitempty"`
}

// PermissionDecl is one permission declared by an application.
type PermissionDecl struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// Manifest is the declarative descriptor of an application. Unknown fields
// in the source document are ignored.
type Manifest struct {
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	Version      string           `json:"version"`
	Description  string           `json:"description,omitempty"`
	Icon         string           `json:"icon,omitempty"`
	RoutePath    string           `json:"route_path,omitempty"`
	EntryPoint   string           `json:"entry_point,omitempty"`
	SortOrder    int              `json:"sort_order,omitempty"`
	MenuConfig   []MenuNode       `json:"menu_config,omitempty"`
	Permissions  []PermissionDecl `json:"permissions,omitempty"`
	Dependencies []string         `json:"dependencies,omitempty"`
}

// ParseManifest decodes and validates one manifest document.
func ParseManifest(raw []byte) (*Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Validate checks the required fields. A failing manifest skips the
// application during discovery, it never aborts it.
func (m *Manifest) Validate() error {
	if m.Code == "" {
		return fmt.Errorf("manifest missing code")
	}
	if m.Name == "" {
		return fmt.Errorf("manifest %q missing name", m.Code)
	}
	if m.Version == "" {
		return fmt.Errorf("manifest %q missing version", m.Code)
	}
	return validateMenuNodes(m.Code, m.MenuConfig)
}

func validateMenuNodes(appCode string, nodes []MenuNode) error {
	for _, node := range nodes {
		if node.Title == "" && node.Path == "" {
			return fmt.Errorf("manifest %q: menu node without title or path", appCode)
		}
		if err := validateMenuNodes(appCode, node.Children); err != nil {
			return err
		}
	}
	return nil
}

// Raw re-encodes the manifest for persistence in the application row.
func (m *Manifest) Raw() string {
	raw, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
