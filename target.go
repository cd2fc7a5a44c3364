package md2deck

import (
	"fmt"
	"strings"
)

// Target names an output artifact kind.
type Target string

const (
	TargetBinary Target = "binary" // HTML deck printed to PDF
	TargetCloud  Target = "cloud"  // Google Slides presentation
	TargetNotes  Target = "notes"  // flat speaker-notes text file
)

// TargetAll expands to every target.
const TargetAll = "all"

// AllTargets lists every target in canonical order.
var AllTargets = []Target{TargetBinary, TargetCloud, TargetNotes}

// DefaultTargets are rendered when none are requested.
var DefaultTargets = []Target{TargetBinary, TargetNotes}

func (t Target) String() string { return string(t) }

// Valid reports whether t is a known target.
func (t Target) Valid() bool {
	switch t {
	case TargetBinary, TargetCloud, TargetNotes:
		return true
	}
	return false
}

// ParseTargets reads target names, accepting comma-separated lists and
// "all". Duplicates are dropped, first occurrence wins.
func ParseTargets(values []string) ([]Target, error) {
	var out []Target
	seen := make(map[Target]bool, len(AllTargets))
	add := func(t Target) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			switch {
			case name == "":
			case name == TargetAll:
				for _, t := range AllTargets {
					add(t)
				}
			case Target(name).Valid():
				add(Target(name))
			default:
				return nil, fmt.Errorf("%w: %q (must be binary, cloud, notes or all)", ErrUnknownTarget, name)
			}
		}
	}
	return out, nil
}

func targetStrings(ts []Target) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}
