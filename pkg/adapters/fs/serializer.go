package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/nebulaboard/pkg/core"
	"gopkg.in/yaml.v3"
)

// collectionVersion is the on-disk layout version of a collection file.
const collectionVersion = 1

// Serializer defines how a collection file is read and written.
type Serializer interface {
	// Ext returns the file extension, including the dot.
	Ext() string
	// Parse decodes a collection file into records.
	Parse(data []byte, schema core.Schema) ([]core.Record, error)
	// Serialize encodes records into a collection file.
	Serialize(records []core.Record, schema core.Schema) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers keyed by format name.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		"json": NewJSONSerializer(),
		"yaml": NewYAMLSerializer(),
	}
}

// collectionFile is the envelope shared by every format.
type collectionFile struct {
	Version    int              `json:"version" yaml:"version"`
	Collection string           `json:"collection" yaml:"collection"`
	Records    []map[string]any `json:"records" yaml:"records"`
}

func toEnvelope(records []core.Record, schema core.Schema) collectionFile {
	sorted := make([]core.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	env := collectionFile{
		Version:    collectionVersion,
		Collection: schema.Name,
		Records:    make([]map[string]any, 0, len(sorted)),
	}
	for _, r := range sorted {
		row := make(map[string]any, len(r.Fields)+1)
		for k, v := range r.Fields {
			row[k] = v
		}
		row[schema.PrimaryKey] = r.ID
		env.Records = append(env.Records, row)
	}
	return env
}

func fromEnvelope(env collectionFile, schema core.Schema) ([]core.Record, error) {
	if env.Version > collectionVersion {
		return nil, fmt.Errorf("unsupported collection version %d", env.Version)
	}
	if env.Collection != "" && env.Collection != schema.Name {
		return nil, fmt.Errorf("collection file belongs to %q, expected %q", env.Collection, schema.Name)
	}

	records := make([]core.Record, 0, len(env.Records))
	for i, row := range env.Records {
		id, ok := row[schema.PrimaryKey].(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("record %d has no %q", i, schema.PrimaryKey)
		}
		fields := make(core.Fields, len(row))
		for k, v := range row {
			if k == schema.PrimaryKey {
				continue
			}
			fields[k] = v
		}
		records = append(records, core.Record{ID: id, Fields: fields})
	}
	return records, nil
}

// normalizeFields converts caller values into the JSON value model that a
// reload would produce: numbers become float64, slices []any, structs and
// typed maps map[string]any.
func normalizeFields(fields core.Fields) (core.Fields, error) {
	if len(fields) == 0 {
		return fields, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("unsupported field value: %w", err)
	}
	var out core.Fields
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unsupported field value: %w", err)
	}
	return out, nil
}

// --- JSON Serializer ---

// JSONSerializer handles reading and writing JSON collection files.
type JSONSerializer struct{}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Ext() string { return ".json" }

func (s *JSONSerializer) Parse(data []byte, schema core.Schema) ([]core.Record, error) {
	var env collectionFile
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return fromEnvelope(env, schema)
}

func (s *JSONSerializer) Serialize(records []core.Record, schema core.Schema) ([]byte, error) {
	return json.MarshalIndent(toEnvelope(records, schema), "", "  ")
}

// --- YAML Serializer ---

// YAMLSerializer handles reading and writing YAML collection files.
// Values are normalized into the JSON value model on load so that indexes
// compare them the same way regardless of format.
type YAMLSerializer struct{}

// NewYAMLSerializer creates a new YAML serializer.
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{}
}

func (s *YAMLSerializer) Ext() string { return ".yaml" }

func (s *YAMLSerializer) Parse(data []byte, schema core.Schema) ([]core.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	// YAML yields ints and typed maps; round-trip through JSON to get
	// float64 numbers and map[string]any everywhere.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize yaml: %w", err)
	}

	var env collectionFile
	if err := json.Unmarshal(normalized, &env); err != nil {
		return nil, fmt.Errorf("invalid yaml collection: %w", err)
	}
	return fromEnvelope(env, schema)
}

func (s *YAMLSerializer) Serialize(records []core.Record, schema core.Schema) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(toEnvelope(records, schema)); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
