package domain

import dErrors "campuspulse/pkg/domain-errors"

// Niche is the category tag a participant selects when registering for an
// event (and the category an event belongs to).
type Niche string

// Supported niches.
const (
	NicheGaming  Niche = "gaming"
	NicheSinging Niche = "singing"
	NicheDancing Niche = "dancing"
	NicheCoding  Niche = "coding"
)

var validNiches = map[Niche]bool{
	NicheGaming:  true,
	NicheSinging: true,
	NicheDancing: true,
	NicheCoding:  true,
}

// ParseNiche constructs a Niche from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseNiche(s string) (Niche, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "niche cannot be empty")
	}
	n := Niche(s)
	if !n.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid niche")
	}
	return n, nil
}

// IsValid checks if the niche is one of the supported enum values.
func (n Niche) IsValid() bool {
	return validNiches[n]
}

// String returns the string representation of the niche.
func (n Niche) String() string {
	return string(n)
}
