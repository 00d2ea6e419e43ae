// Package detect classifies live filesystem state against the loaded index.
//
// Classification is pure: it reads nothing from disk and mutates neither
// input. The scanner supplies fresh signatures; the index supplies the
// cached ones.
package detect

import (
	"git.home.luguber.info/inful/sitegen/internal/index"
	"git.home.luguber.info/inful/sitegen/internal/scan"
)

// Status is the change state of one path.
type Status int

const (
	StatusUnchanged Status = iota
	StatusNew
	StatusModified
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	default:
		return "unchanged"
	}
}

// Classification maps each known path to its change status.
type Classification map[string]Status

// Changed reports whether any path is in a non-unchanged state.
func (c Classification) Changed() bool {
	for _, st := range c {
		if st != StatusUnchanged {
			return true
		}
	}
	return false
}

// Count returns the number of paths with the given status.
func (c Classification) Count(status Status) int {
	n := 0
	for _, st := range c {
		if st == status {
			n++
		}
	}
	return n
}

// Classify compares every live path against the index:
// absent from index -> new; present with differing signature -> modified;
// identical signature -> unchanged. Indexed paths absent from the live set
// are deleted. An empty live set against an empty index yields an empty map.
func Classify(live []scan.Entry, ix *index.BuildIndex) Classification {
	cls := make(Classification, len(live))
	seen := make(map[string]struct{}, len(live))

	for _, e := range live {
		seen[e.Path] = struct{}{}

		cached := ix.Get(e.Path)
		switch {
		case cached == nil:
			cls[e.Path] = StatusNew
		case !cached.Signature.Equal(e.Signature):
			cls[e.Path] = StatusModified
		default:
			cls[e.Path] = StatusUnchanged
		}
	}

	for path := range ix.Entries {
		if _, ok := seen[path]; !ok {
			cls[path] = StatusDeleted
		}
	}

	return cls
}
