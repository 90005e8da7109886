package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Variant selects the preprocessing and query strategy
type Variant string

const (
	// VariantSimple scans every record per query against cell boundaries.
	VariantSimple Variant = "v1"
	// VariantSimpleParallel is VariantSimple with fork-join extent, grid and scan.
	VariantSimpleParallel Variant = "v2"
	// VariantSmart bins records once and answers from a summed-area table.
	VariantSmart Variant = "v3"
	// VariantSmartParallel is VariantSmart with fork-join extent and binning.
	VariantSmartParallel Variant = "v4"
	// VariantSmartLocked bins into one shared grid from several workers and
	// builds the summed-area table in parallel passes.
	VariantSmartLocked Variant = "v5"

	DefaultVariant = VariantSmartParallel
)

// ErrUnknownVariant is returned by ParseVariant for unrecognized input
var ErrUnknownVariant = errors.New("engine: unknown variant")

var variantNames = map[Variant]string{
	VariantSimple:         "simple",
	VariantSimpleParallel: "simple-parallel",
	VariantSmart:          "smart",
	VariantSmartParallel:  "smart-parallel",
	VariantSmartLocked:    "smart-locked",
}

// Name returns the descriptive name of v
func (v Variant) Name() string {
	return variantNames[v]
}

func (v Variant) String() string {
	return string(v)
}

// ParseVariant accepts "v3", "-v3", "3" or a variant name such as "smart".
// The empty string selects DefaultVariant.
func ParseVariant(s string) (Variant, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultVariant, nil
	}
	s = strings.TrimLeft(s, "-")
	if len(s) == 1 {
		s = "v" + s
	}
	if _, ok := variantNames[Variant(s)]; ok {
		return Variant(s), nil
	}
	for v, name := range variantNames {
		if name == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w %q (want one of %s)", ErrUnknownVariant, s, strings.Join(variantList(), ", "))
}

// Variants returns all known variants in order
func Variants() []Variant {
	vs := make([]Variant, 0, len(variantNames))
	for v := range variantNames {
		vs = append(vs, v)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	return vs
}

func variantList() []string {
	var out []string
	for _, v := range Variants() {
		out = append(out, fmt.Sprintf("%s (%s)", v, v.Name()))
	}
	return out
}
