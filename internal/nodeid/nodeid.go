// Package nodeid generates and validates node and edge identifiers.
//
// Node ids are opaque strings. Ids created by the editor are random UUIDs;
// ids loaded from a grid file are user chosen and must match the segment
// grammar accepted by Validate. Edge ids are derived from their endpoints and
// handles, so connecting the same pair of handles twice yields the same id.
package nodeid

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// segment matches a single identifier: letters, digits, underscore, dot and
// hyphen.
var segment = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// New returns a fresh, globally unique node id.
func New() string {
	return uuid.NewString()
}

// NewRunID returns a fresh id for one executor run.
func NewRunID() string {
	return "run-" + uuid.NewString()
}

// edgePart escapes the separators used by EdgeID so that distinct endpoint
// tuples never render to the same id.
var edgePart = strings.NewReplacer("%", "%25", ":", "%3A", "~", "%7E")

// EdgeID returns the canonical id of the edge between the given endpoints,
// in the form xy-edge__source:handle~target:handle. Absent handles are
// omitted together with their colon.
func EdgeID(source, sourceHandle, target, targetHandle string) string {
	return "xy-edge__" + endpoint(source, sourceHandle) + "~" + endpoint(target, targetHandle)
}

func endpoint(id, handle string) string {
	if handle == "" {
		return edgePart.Replace(id)
	}
	return edgePart.Replace(id) + ":" + edgePart.Replace(handle)
}

// Validate checks that id is usable as a user-supplied node id.
func Validate(id string) error {
	if id == "" {
		return fmt.Errorf("node id cannot be empty")
	}
	if !segment.MatchString(id) {
		return fmt.Errorf("invalid node id '%s': only letters, digits, '_', '.' and '-' are allowed", id)
	}
	return nil
}
