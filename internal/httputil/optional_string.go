package httputil

import (
	"bytes"
	"encoding/json"
	"strings"
)

// RootAlias names the hierarchy root in URLs and request bodies.
const RootAlias = "home"

// OptionalString tracks presence and value for JSON PATCH semantics (RFC 7396):
//   - Present=false: field absent, leave it alone
//   - Present=true, Value=nil: field is JSON null
//   - Present=true, Value=&"x": field has a value
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only called when the field is present in the document.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// NodeRef interprets the value as a parent reference: null, empty and the root
// alias all mean the root.
func (o OptionalString) NodeRef() *string {
	if o.Value == nil {
		return nil
	}
	return ParentRef(*o.Value)
}

// ParentRef maps a raw parent id to nil for the root.
func ParentRef(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == RootAlias {
		return nil
	}
	return &raw
}
