package domain

import "encoding/json"

// Itinerary is the opaque trip-plan payload produced by the external planning
// service. The registry never interprets it beyond the typed accessors below;
// differently-shaped payloads (older versions, partial plans) are handled by
// explicit optional fields with defaults rather than presence checks scattered
// through callers.
type Itinerary struct {
	raw json.RawMessage
}

// itineraryFields is the subset of the payload the accessors understand.
// All fields are optional; absent fields fall back to zero-value defaults.
type itineraryFields struct {
	Version int               `json:"version"`
	Summary string            `json:"summary"`
	Days    []json.RawMessage `json:"days"`
}

// NewItinerary wraps a raw payload. A nil or empty payload yields the zero
// Itinerary, for which every accessor returns its default.
func NewItinerary(raw json.RawMessage) Itinerary {
	if len(raw) == 0 {
		return Itinerary{}
	}
	return Itinerary{raw: raw}
}

// Raw returns the payload bytes exactly as stored, or nil for the zero value.
func (i Itinerary) Raw() json.RawMessage { return i.raw }

// IsZero reports whether no payload is attached.
func (i Itinerary) IsZero() bool { return len(i.raw) == 0 }

// Version returns the payload's declared schema version, or 0 when absent or
// unparseable.
func (i Itinerary) Version() int { return i.fields().Version }

// Summary returns the human-readable plan summary, or "" when absent.
func (i Itinerary) Summary() string { return i.fields().Summary }

// DayCount returns the number of planned days, or 0 when absent.
func (i Itinerary) DayCount() int { return len(i.fields().Days) }

func (i Itinerary) fields() itineraryFields {
	var f itineraryFields
	if len(i.raw) == 0 {
		return f
	}
	// Malformed payloads degrade to defaults; the registry is not the
	// validator of the planning service's output.
	_ = json.Unmarshal(i.raw, &f)
	return f
}

// MarshalJSON emits the raw payload unchanged, or JSON null for the zero value.
func (i Itinerary) MarshalJSON() ([]byte, error) {
	if len(i.raw) == 0 {
		return []byte("null"), nil
	}
	return i.raw, nil
}

// UnmarshalJSON stores the payload bytes without interpreting them.
func (i *Itinerary) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		i.raw = nil
		return nil
	}
	i.raw = append(i.raw[:0], data...)
	return nil
}
