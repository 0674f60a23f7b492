package model

// SourceKind identifies the OSM element type a footprint came from.
type SourceKind string

const (
	SourceWay      SourceKind = "way"
	SourceRelation SourceKind = "relation"
)

// TagMap is a free-form OSM tag mapping. Known keys are exposed through
// typed accessors instead of the raw map.
type TagMap map[string]string

// Get returns the tag value for key and whether it was present and non-empty.
func (t TagMap) Get(key string) (string, bool) {
	v, ok := t[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Building returns the "building" tag value, if set.
func (t TagMap) Building() (string, bool) {
	return t.Get("building")
}

// Name returns the "name" tag value, if set.
func (t TagMap) Name() (string, bool) {
	return t.Get("name")
}

// Footprint is a raw building outline as returned by the Overpass query.
// Vertices may be empty, too short, or self-intersecting; validity is the
// polygon builder's concern, not the record's.
type Footprint struct {
	Kind     SourceKind `json:"kind"`
	ID       int64      `json:"id"`
	Tags     TagMap     `json:"tags,omitempty"`
	Vertices []GeoPoint `json:"vertices,omitempty"`
}
