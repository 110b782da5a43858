// Package tle loads two-line orbital element sets from text, files, stdin or
// HTTP sources.
package tle

import (
	"strconv"
	"time"
)

// Element is one satellite's two-line element set. Immutable once parsed.
type Element struct {
	NORADID int
	Name    string // empty when the source had no title line
	Epoch   time.Time
	Line1   string
	Line2   string
}

// Label returns the element's name, or its catalog number when unnamed.
func (e Element) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return strconv.Itoa(e.NORADID)
}
