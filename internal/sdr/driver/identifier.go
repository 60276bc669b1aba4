package driver

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultDriver is selected when an identifier names only a device index.
const DefaultDriver = "hackrf"

// Identifier selects a driver and, optionally, one of its devices.
//
// Accepted forms are a comma separated key=value list such as
// "driver=hackrf,serial=0000000000000000457863c82b1e2f4f", or a bare
// device index such as "0" which selects the default driver.
type Identifier struct {
	Driver string
	Index  int // -1 when not set
	Args   map[string]string
}

// ParseIdentifier parses a driver identifier string.
func ParseIdentifier(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identifier{}, NewConfigError("driver identifier is empty")
	}

	if index, err := strconv.Atoi(s); err == nil {
		if index < 0 {
			return Identifier{}, NewConfigError(fmt.Sprintf("device index must not be negative: %d given", index))
		}
		return Identifier{Driver: DefaultDriver, Index: index, Args: map[string]string{}}, nil
	}

	id := Identifier{Index: -1, Args: map[string]string{}}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Identifier{}, NewConfigError(fmt.Sprintf("malformed driver identifier component %q", part))
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "driver":
			id.Driver = strings.ToLower(value)
		case "index":
			index, err := strconv.Atoi(value)
			if err != nil || index < 0 {
				return Identifier{}, NewConfigError(fmt.Sprintf("invalid device index %q", value))
			}
			id.Index = index
		default:
			id.Args[key] = value
		}
	}

	if id.Driver == "" {
		return Identifier{}, NewConfigError(fmt.Sprintf("driver identifier %q does not name a driver", s))
	}

	return id, nil
}

// String returns the identifier in its key=value form.
func (id Identifier) String() string {
	var b strings.Builder
	b.WriteString("driver=")
	b.WriteString(id.Driver)
	if id.Index >= 0 {
		b.WriteString(",index=")
		b.WriteString(strconv.Itoa(id.Index))
	}

	keys := make([]string, 0, len(id.Args))
	for k := range id.Args {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteString(",")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(id.Args[k])
	}
	return b.String()
}

// Bool returns the named argument parsed as a boolean, or def when the
// argument is absent or malformed.
func (id Identifier) Bool(key string, def bool) bool {
	v, ok := id.Args[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Int returns the named argument parsed as an integer, or def when the
// argument is absent or malformed.
func (id Identifier) Int(key string, def int) int {
	v, ok := id.Args[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Float returns the named argument parsed as a float, or def when the
// argument is absent or malformed.
func (id Identifier) Float(key string, def float64) float64 {
	v, ok := id.Args[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
