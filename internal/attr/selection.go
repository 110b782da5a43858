package attr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAttribute is returned for a name that is neither an attribute
// nor a group.
var ErrUnknownAttribute = errors.New("unknown attribute")

const (
	// GroupAll enables every attribute.
	GroupAll = "all"
	// GroupStandard enables every attribute that does not need an observer.
	GroupStandard = "standard"
)

// Selection is the set of enabled attributes, fixed before a trace starts.
// The zero value enables nothing.
type Selection struct {
	enabled []bool // indexed like catalog
}

// NewSelection enables the named attributes and groups. Names are matched
// case-insensitively.
func NewSelection(names ...string) (Selection, error) {
	s := Selection{enabled: make([]bool, len(catalog))}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "":
			continue
		case GroupAll:
			for i := range catalog {
				s.enabled[i] = true
			}
		case GroupStandard:
			for i, d := range catalog {
				if !d.Observer {
					s.enabled[i] = true
				}
			}
		default:
			i := indexOf(name)
			if i < 0 {
				return Selection{}, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
			}
			s.enabled[i] = true
		}
	}
	return s, nil
}

func indexOf(name string) int {
	for i, d := range catalog {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// Enabled reports whether the named attribute is selected.
func (s Selection) Enabled(name string) bool {
	i := indexOf(name)
	return i >= 0 && i < len(s.enabled) && s.enabled[i]
}

// Descriptors returns the selected attributes in catalog order.
func (s Selection) Descriptors() []Descriptor {
	var out []Descriptor
	for i, on := range s.enabled {
		if on {
			out = append(out, catalog[i])
		}
	}
	return out
}

// Len returns the number of selected attributes.
func (s Selection) Len() int {
	n := 0
	for _, on := range s.enabled {
		if on {
			n++
		}
	}
	return n
}

// ObserverRequired returns the names of selected attributes that need an
// observer, in catalog order.
func (s Selection) ObserverRequired() []string {
	var names []string
	for i, on := range s.enabled {
		if on && catalog[i].Observer {
			names = append(names, catalog[i].Name)
		}
	}
	return names
}

// Values computes every selected attribute for in, in catalog order.
// Unselected attributes are not computed.
func (s Selection) Values(in Input) []Value {
	out := make([]Value, 0, s.Len())
	for i, on := range s.enabled {
		if on {
			out = append(out, catalog[i].compute(in))
		}
	}
	return out
}
