// Package geo decodes boundary documents in TopoJSON or GeoJSON form.
package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Document kinds.
const (
	KindTopology          = "Topology"
	KindFeatureCollection = "FeatureCollection"
	KindFeature           = "Feature"
)

var defaultNameKeys = []string{"name", "NAME", "admin", "ADMIN", "country_name", "name_long"}

// Feature is one boundary shape. Geometry is kept undecoded.
type Feature struct {
	ID         string
	Properties map[string]any
	Geometry   json.RawMessage
}

// Document is a decoded boundary file.
type Document struct {
	Kind     string
	Features []Feature
	// NameKey is the property holding feature names. Empty tries common keys.
	NameKey string
}

type rawObject struct {
	Type        string               `json:"type"`
	ID          any                  `json:"id"`
	Properties  map[string]any       `json:"properties"`
	Geometry    json.RawMessage      `json:"geometry"`
	Features    []rawObject          `json:"features"`
	Geometries  []rawObject          `json:"geometries"`
	Objects     map[string]rawObject `json:"objects"`
	Arcs        json.RawMessage      `json:"arcs"`
	Coordinates json.RawMessage      `json:"coordinates"`
}

// Decode reads a TopoJSON topology or a GeoJSON feature (collection).
func Decode(r io.Reader) (Document, error) {
	var root rawObject
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return Document{}, fmt.Errorf("failed to decode boundary document: %w", err)
	}
	switch root.Type {
	case KindTopology:
		return decodeTopology(root), nil
	case KindFeatureCollection:
		doc := Document{Kind: KindFeatureCollection}
		for _, f := range root.Features {
			doc.Features = append(doc.Features, toFeature(f, f.Geometry))
		}
		return doc, nil
	case KindFeature:
		return Document{Kind: KindFeature, Features: []Feature{toFeature(root, root.Geometry)}}, nil
	case "":
		return Document{}, fmt.Errorf("boundary document has no type")
	default:
		return Document{}, fmt.Errorf("unsupported boundary document type %q", root.Type)
	}
}

func decodeTopology(root rawObject) Document {
	doc := Document{Kind: KindTopology}
	names := make([]string, 0, len(root.Objects))
	for name := range root.Objects {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		obj := root.Objects[name]
		if obj.Type == "GeometryCollection" {
			for _, g := range obj.Geometries {
				doc.Features = append(doc.Features, toFeature(g, topoGeometry(g)))
			}
			continue
		}
		doc.Features = append(doc.Features, toFeature(obj, topoGeometry(obj)))
	}
	return doc
}

func topoGeometry(obj rawObject) json.RawMessage {
	if len(obj.Arcs) > 0 {
		return obj.Arcs
	}
	return obj.Coordinates
}

func toFeature(obj rawObject, geometry json.RawMessage) Feature {
	f := Feature{Properties: obj.Properties, Geometry: geometry}
	switch id := obj.ID.(type) {
	case nil:
	case string:
		f.ID = id
	case float64:
		f.ID = strconv.FormatFloat(id, 'f', -1, 64)
	default:
		f.ID = fmt.Sprint(id)
	}
	return f
}

// Name returns the feature's display name using key, or common name keys when key is empty.
func (f Feature) Name(key string) string {
	keys := defaultNameKeys
	if key != "" {
		keys = []string{key}
	}
	for _, k := range keys {
		if v, ok := f.Properties[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	if key == "" {
		return f.ID
	}
	return ""
}

// Names lists feature names in document order, skipping unnamed features.
func (d Document) Names(key string) []string {
	out := make([]string, 0, len(d.Features))
	for _, f := range d.Features {
		if name := f.Name(key); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Index returns a case-insensitive name lookup for Covers checks.
func (d Document) Index(key string) map[string]struct{} {
	idx := make(map[string]struct{}, len(d.Features))
	for _, name := range d.Names(key) {
		idx[NormalizeName(name)] = struct{}{}
	}
	return idx
}

// NormalizeName folds case and surrounding space for name matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Covers reports whether some feature is named like country.
func (d Document) Covers(country string) bool {
	_, ok := d.Index(d.NameKey)[NormalizeName(country)]
	return ok
}
