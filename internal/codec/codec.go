package codec

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
)

// Codec serializes payload values to and from bytes.
type Codec interface {
	// Name identifies the codec in logs and configuration.
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON is the default codec.
type JSON struct{}

func (JSON) Name() string { return "json" }
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// CBOR is the compact binary codec.
type CBOR struct{}

func (CBOR) Name() string { return "cbor" }
func (CBOR) Marshal(v any) ([]byte, error) { return cbor.Marshal(v) }
func (CBOR) Unmarshal(data []byte, v any) error { return cbor.Unmarshal(data, v) }

// ByName returns the codec registered under name, defaulting to JSON for
// empty or unknown names.
func ByName(name string) Codec {
	if name == "cbor" {
		return CBOR{}
	}
	return JSON{}
}
