// internal/descriptor/descriptor.go
package descriptor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Descriptor is the typed output of parsing one phrase: a rule-engine
// module type identifier plus its configuration. Descriptors carry no
// behavior; building runtime trigger or condition instances from them
// belongs to the rule engine.
type Descriptor struct {
	Type   string
	Name   string // optional identifier assigned by the caller
	Config Config
}

// Config is an insertion-ordered set of configuration parameters.
// Keys appear in the order they were set, which mirrors the order the
// source grammar extracted them from the phrase. Values are strings,
// ints, or bools. Optional parameters that were absent from the phrase
// are simply never set.
type Config struct {
	params []Param
}

// Param is a single configuration entry.
type Param struct {
	Key   string
	Value any
}

// NewConfig builds a Config from the given parameters in order.
func NewConfig(params ...Param) Config {
	c := Config{}
	for _, p := range params {
		c.Set(p.Key, p.Value)
	}
	return c
}

// Set adds or replaces a parameter. Replacing keeps the original position.
func (c *Config) Set(key string, value any) {
	for i, p := range c.params {
		if p.Key == key {
			c.params[i].Value = value
			return
		}
	}
	c.params = append(c.params, Param{Key: key, Value: value})
}

// Get returns the value for key and whether it is present.
func (c *Config) Get(key string) (any, bool) {
	for _, p := range c.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// GetString returns the value for key as a string, or "" when absent.
func (c *Config) GetString(key string) string {
	v, ok := c.Get(key)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// Keys returns the parameter keys in insertion order.
func (c *Config) Keys() []string {
	keys := make([]string, len(c.params))
	for i, p := range c.params {
		keys[i] = p.Key
	}
	return keys
}

// Params returns the parameters in insertion order.
func (c *Config) Params() []Param {
	out := make([]Param, len(c.params))
	copy(out, c.params)
	return out
}

// Len returns the number of parameters.
func (c *Config) Len() int {
	return len(c.params)
}

// MarshalJSON encodes the configuration as a JSON object whose member
// order matches insertion order.
func (c Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range c.params {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding config key %s: %w", p.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the configuration as key=value pairs for logs.
func (c Config) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range c.params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", p.Key, p.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON encodes the descriptor with stable field order.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type   string `json:"type"`
		Name   string `json:"name,omitempty"`
		Config Config `json:"configuration"`
	}
	return json.Marshal(wire{Type: d.Type, Name: d.Name, Config: d.Config})
}

// String renders the descriptor compactly for logs.
func (d Descriptor) String() string {
	if d.Name != "" {
		return fmt.Sprintf("%s[%s]%s", d.Type, d.Name, d.Config.String())
	}
	return d.Type + d.Config.String()
}
