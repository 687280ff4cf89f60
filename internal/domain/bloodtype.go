package domain

import (
	"fmt"
	"strings"
)

type BloodType string

const (
	BloodAPos  BloodType = "A+"
	BloodANeg  BloodType = "A-"
	BloodBPos  BloodType = "B+"
	BloodBNeg  BloodType = "B-"
	BloodABPos BloodType = "AB+"
	BloodABNeg BloodType = "AB-"
	BloodOPos  BloodType = "O+"
	BloodONeg  BloodType = "O-"
)

var knownBloodTypes = map[BloodType]struct{}{
	BloodAPos: {}, BloodANeg: {}, BloodBPos: {}, BloodBNeg: {},
	BloodABPos: {}, BloodABNeg: {}, BloodOPos: {}, BloodONeg: {},
}

func (b BloodType) Valid() bool {
	_, ok := knownBloodTypes[b]
	return ok
}

// ParseBloodTypes normalises tokens into a non-empty set, keeping first-seen order.
func ParseBloodTypes(tokens []string) ([]BloodType, error) {
	out := make([]BloodType, 0, len(tokens))
	seen := make(map[BloodType]struct{}, len(tokens))
	for _, raw := range tokens {
		bt := BloodType(strings.ToUpper(strings.TrimSpace(raw)))
		if bt == "" {
			continue
		}
		if !bt.Valid() {
			return nil, ErrValidationField("blood_types_needed", fmt.Sprintf("unknown blood type %q", raw))
		}
		if _, dup := seen[bt]; dup {
			continue
		}
		seen[bt] = struct{}{}
		out = append(out, bt)
	}
	if len(out) == 0 {
		return nil, ErrValidationField("blood_types_needed", "at least one blood type is required")
	}
	return out, nil
}

func BloodTypeStrings(types []BloodType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
