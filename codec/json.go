package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// For metadata and record envelopes (map-like structures), JSON is stable
// and portable. If you need custom encoding (e.g. protobuf/msgpack),
// implement Codec and set it on the snapshot options.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }
