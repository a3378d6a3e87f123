package version

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.yaml
var schemaFS embed.FS

// ColumnType is the storage type of a column.
type ColumnType string

const (
	TypeInteger  ColumnType = "integer"
	TypeReal     ColumnType = "real"
	TypeText     ColumnType = "text"
	TypeJSON     ColumnType = "json"
	TypeDateTime ColumnType = "datetime"
)

// SchemaManifest describes the parsed record columns of a schema version.
type SchemaManifest struct {
	Version     string      `yaml:"version"`
	Description string      `yaml:"description"`
	Table       string      `yaml:"table"`
	Columns     []ColumnDef `yaml:"columns"`
}

// ColumnDef is one column of the parsed record.
type ColumnDef struct {
	Name     string     `yaml:"name"`
	Type     ColumnType `yaml:"type"`
	Size     int        `yaml:"size,omitempty"`
	Nullable bool       `yaml:"nullable"`
}

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]*SchemaManifest)
)

// LoadSchema loads a schema manifest by version string (e.g. "1.0").
func LoadSchema(ver string) (*SchemaManifest, error) {
	cacheMu.RLock()
	if s, ok := cache[ver]; ok {
		cacheMu.RUnlock()
		return s, nil
	}
	cacheMu.RUnlock()

	data, err := schemaFS.ReadFile("schemas/" + ver + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("schema version %q not found: %w", ver, err)
	}

	var m SchemaManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing schema %q: %w", ver, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("schema %q: %w", ver, err)
	}

	cacheMu.Lock()
	cache[ver] = &m
	cacheMu.Unlock()

	return &m, nil
}

// LoadCurrentSchema loads the manifest for the current schema version.
func LoadCurrentSchema() (*SchemaManifest, error) {
	return LoadSchema(Current)
}

// AvailableSchemas returns the version strings of all embedded manifests.
func AvailableSchemas() ([]string, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("reading schemas directory: %w", err)
	}

	var versions []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") {
			versions = append(versions, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(versions)
	return versions, nil
}

func (s *SchemaManifest) validate() error {
	if s.Table == "" {
		return fmt.Errorf("table name missing")
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return fmt.Errorf("column without name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate column %s", c.Name)
		}
		seen[c.Name] = true
		switch c.Type {
		case TypeInteger, TypeReal, TypeText, TypeJSON, TypeDateTime:
		default:
			return fmt.Errorf("column %s: unknown type %q", c.Name, c.Type)
		}
	}
	return nil
}

// ColumnNames returns the column names in schema order.
func (s *SchemaManifest) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (s *SchemaManifest) Column(name string) (ColumnDef, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// Diff compares columns against the manifest and returns the names missing
// from columns and the names not in the manifest, in that order.
func (s *SchemaManifest) Diff(columns []string) (missing, extra []string) {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	for _, c := range s.Columns {
		if !have[c.Name] {
			missing = append(missing, c.Name)
		}
		delete(have, c.Name)
	}
	for _, c := range columns {
		if have[c] {
			extra = append(extra, c)
		}
	}
	return missing, extra
}
