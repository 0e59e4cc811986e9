package types

import (
	"fmt"
	"strings"
)

// BCFLAG is the boundary condition type carried by a patch or a field.
type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_FixedValue
	BC_ZeroGradient
	BC_Calculated
	BC_Empty // 2D front/back planes, no boundary values stored
	BC_Patch // generic geometric patch
	BC_Wall
)

var BCNameMap = map[string]BCFLAG{
	"fixedvalue":   BC_FixedValue,
	"dirichlet":    BC_FixedValue,
	"zerogradient": BC_ZeroGradient,
	"neuman":       BC_ZeroGradient,
	"calculated":   BC_Calculated,
	"empty":        BC_Empty,
	"patch":        BC_Patch,
	"wall":         BC_Wall,
}

func (bc BCFLAG) String() string {
	switch bc {
	case BC_None:
		return "none"
	case BC_FixedValue:
		return "fixedValue"
	case BC_ZeroGradient:
		return "zeroGradient"
	case BC_Calculated:
		return "calculated"
	case BC_Empty:
		return "empty"
	case BC_Patch:
		return "patch"
	case BC_Wall:
		return "wall"
	}
	return fmt.Sprintf("BCFLAG(%d)", uint8(bc))
}

// NewBCFLAG resolves a boundary type name, case insensitive.
func NewBCFLAG(name string) (bc BCFLAG, err error) {
	var ok bool
	if bc, ok = BCNameMap[strings.ToLower(strings.TrimSpace(name))]; !ok {
		err = fmt.Errorf("unknown boundary condition type: \"%s\"", name)
	}
	return
}

// StoresValues is false for patches that carry no boundary face values.
func (bc BCFLAG) StoresValues() bool {
	return bc != BC_Empty
}
