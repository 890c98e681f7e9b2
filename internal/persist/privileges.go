package persist

import "strings"

// Privileges is a bit set of account capabilities. A requirement is met only
// when every required bit is present.
type Privileges int32

const (
	PrivNormal    Privileges = 1 << 0
	PrivSupporter Privileges = 1 << 1
	PrivModerator Privileges = 1 << 2
	PrivAdmin     Privileges = 1 << 3
)

// Has reports whether all bits of req are set.
func (p Privileges) Has(req Privileges) bool {
	return p&req == req
}

func (p Privileges) String() string {
	if p == 0 {
		return "none"
	}
	var parts []string
	if p.Has(PrivNormal) {
		parts = append(parts, "normal")
	}
	if p.Has(PrivSupporter) {
		parts = append(parts, "supporter")
	}
	if p.Has(PrivModerator) {
		parts = append(parts, "moderator")
	}
	if p.Has(PrivAdmin) {
		parts = append(parts, "admin")
	}
	return strings.Join(parts, "|")
}
