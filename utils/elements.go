package utils

import "fmt"

// ElementType is a mesh element shape read from a mesh file
type ElementType int

const (
	Unknown ElementType = iota
	Line
	Triangle
	Quad
)

func (e ElementType) String() string {
	names := []string{"Unknown", "Line", "Triangle", "Quad"}
	if int(e) < len(names) {
		return names[e]
	}
	return "Invalid"
}

// NewElementTypeFromSU2 maps the VTK element codes used by SU2 files
func NewElementTypeFromSU2(code int) (e ElementType, err error) {
	switch code {
	case 3:
		e = Line
	case 5:
		e = Triangle
	case 9:
		e = Quad
	default:
		err = fmt.Errorf("unsupported SU2 element type %d", code)
	}
	return
}

func (e ElementType) GetDimension() int {
	switch e {
	case Line:
		return 1
	case Triangle, Quad:
		return 2
	default:
		return -1
	}
}

func (e ElementType) GetNumNodes() int {
	switch e {
	case Line:
		return 2
	case Triangle:
		return 3
	case Quad:
		return 4
	default:
		return 0
	}
}

// GetElementEdges returns the edges of a 2D element as vertex pairs, in the winding order of vertices
func GetElementEdges(elemType ElementType, vertices []int) (edges [][2]int) {
	if elemType.GetDimension() != 2 {
		return nil
	}
	n := elemType.GetNumNodes()
	edges = make([][2]int, n)
	for i := 0; i < n; i++ {
		edges[i] = [2]int{vertices[i], vertices[(i+1)%n]}
	}
	return
}
