package domain

import "encoding/json"

// Map is one entry of a room's play queue. Layers, entities and the
// created marker are opaque to the server; only their presence is checked.
// Raw messages keep client payloads byte-identical on the way back out.
type Map struct {
	Layers   []json.RawMessage `json:"layers"`
	Entities []json.RawMessage `json:"entities"`
	Created  json.RawMessage   `json:"created"`
}

// Valid reports whether the map is structurally sound: layers and
// entities decoded from JSON arrays (a missing key or null leaves the
// slice nil) and a created marker that was present in the payload. An
// explicit null created counts as present, absence does not.
func (m Map) Valid() bool {
	return m.Layers != nil && m.Entities != nil && len(m.Created) > 0
}

// ValidMaps checks a whole batch; the batch is only usable when every
// entry passes.
func ValidMaps(maps []Map) bool {
	for _, m := range maps {
		if !m.Valid() {
			return false
		}
	}
	return true
}
