// Package codec selects the serialization used for record store snapshots and
// dataset bundles.
//
// Snapshot manifests record the codec name, so a snapshot written with one
// codec is always decoded with the same one. Both built-in codecs produce
// plain JSON and are therefore interchangeable on read.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	// MarshalIndent is like Marshal but formats the output for humans.
	// Used for small documents such as model specs and bundle class lists.
	MarshalIndent(v any, prefix, indent string) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Names of the built-in codecs.
const (
	NameJSON   = "json"
	NameGoJSON = "go-json"
)

// Default is the codec used for new snapshots.
// Record stores are dominated by float arrays, where go-json is considerably faster.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name. An empty name selects
// Default.
func ByName(name string) (Codec, bool) {
	switch name {
	case "":
		return Default, true
	case NameJSON:
		return JSON{}, true
	case NameGoJSON:
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustByName is like ByName but panics on unknown names.
func MustByName(name string) Codec {
	c, ok := ByName(name)
	if !ok {
		panic(fmt.Errorf("codec: unknown codec %q", name))
	}
	return c
}

// Pretty encodes v with two-space indentation and a trailing newline.
// A nil codec means Default.
func Pretty(c Codec, v any) ([]byte, error) {
	if c == nil {
		c = Default
	}
	data, err := c.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("codec %s: %w", c.Name(), err)
	}
	return append(data, '\n'), nil
}
