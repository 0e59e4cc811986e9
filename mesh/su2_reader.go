package mesh

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/types"
	"github.com/notargets/gomapfields/utils"
)

// ReadSU2 reads a two dimensional SU2 native format file and extrudes it over [zMin, zMax]
func ReadSU2(filename string, zMin, zMax float64) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseSU2(file, filename, zMin, zMax)
}

type su2Marker struct {
	tag   string
	edges [][2]int
}

// ParseSU2 reads SU2 content from r. Elements, points and markers may appear in any order.
func ParseSU2(r io.Reader, name string, zMin, zMax float64) (*Mesh, error) {
	var (
		scanner  = bufio.NewScanner(r)
		ndime    int
		elements [][]int
		points   []geom.Point
		markers  []su2Marker
	)
	next := func() (fields []string, ok bool) {
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "%") {
				continue
			}
			return strings.Fields(line), true
		}
		return nil, false
	}
	keyword := func(line, key string) (val int, ok bool, err error) {
		if !strings.HasPrefix(line, key) {
			return
		}
		ok = true
		val, err = strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, key)))
		if err != nil {
			err = fmt.Errorf("su2: bad %s line %q: %w", key, line, err)
		}
		return
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		if v, ok, err := keyword(line, "NDIME="); ok {
			if err != nil {
				return nil, err
			}
			if v != 2 {
				return nil, fmt.Errorf("su2: only 2D meshes are supported, got NDIME=%d", v)
			}
			ndime = v
		} else if nelem, ok, err := keyword(line, "NELEM="); ok {
			if err != nil {
				return nil, err
			}
			elements = make([][]int, 0, nelem)
			for i := 0; i < nelem; i++ {
				fields, more := next()
				if !more {
					return nil, fmt.Errorf("su2: expected %d elements, file ended after %d", nelem, i)
				}
				su2Type, _ := strconv.Atoi(fields[0])
				elemType, typeErr := utils.NewElementTypeFromSU2(su2Type)
				if typeErr != nil || elemType.GetDimension() != 2 {
					return nil, fmt.Errorf("su2: unsupported element type %d in a 2D mesh", su2Type)
				}
				numNodes := elemType.GetNumNodes()
				if len(fields) < numNodes+1 {
					return nil, fmt.Errorf("su2: element %d has %d fields, need %d", i, len(fields), numNodes+1)
				}
				verts := make([]int, numNodes)
				for j := range verts {
					if verts[j], err = strconv.Atoi(fields[1+j]); err != nil {
						return nil, fmt.Errorf("su2: element %d: %w", i, err)
					}
				}
				elements = append(elements, verts)
			}
		} else if npoin, ok, err := keyword(line, "NPOIN="); ok {
			if err != nil {
				return nil, err
			}
			points = make([]geom.Point, npoin)
			for i := 0; i < npoin; i++ {
				fields, more := next()
				if !more || len(fields) < 2 {
					return nil, fmt.Errorf("su2: expected %d points, file ended after %d", npoin, i)
				}
				var x, y float64
				if x, err = strconv.ParseFloat(fields[0], 64); err != nil {
					return nil, fmt.Errorf("su2: point %d: %w", i, err)
				}
				if y, err = strconv.ParseFloat(fields[1], 64); err != nil {
					return nil, fmt.Errorf("su2: point %d: %w", i, err)
				}
				// Point ID is last field when present
				ptID := i
				if len(fields) >= 3 {
					if id, err := strconv.Atoi(fields[len(fields)-1]); err == nil && id >= 0 && id < npoin {
						ptID = id
					}
				}
				points[ptID] = geom.Point{X: x, Y: y}
			}
		} else if nmark, ok, err := keyword(line, "NMARK="); ok {
			if err != nil {
				return nil, err
			}
			for i := 0; i < nmark; i++ {
				fields, more := next()
				if !more || !strings.HasPrefix(fields[0], "MARKER_TAG=") {
					return nil, fmt.Errorf("su2: expected MARKER_TAG for marker %d", i)
				}
				tag := strings.TrimSpace(strings.TrimPrefix(strings.Join(fields, " "), "MARKER_TAG="))
				fields, more = next()
				if !more {
					return nil, fmt.Errorf("su2: marker %q is missing MARKER_ELEMS", tag)
				}
				nMarkerElems, isElems, err := keyword(strings.Join(fields, ""), "MARKER_ELEMS=")
				if err != nil {
					return nil, err
				}
				if !isElems {
					return nil, fmt.Errorf("su2: marker %q is missing MARKER_ELEMS", tag)
				}
				mk := su2Marker{tag: tag}
				for j := 0; j < nMarkerElems; j++ {
					if fields, more = next(); !more || len(fields) < 3 {
						return nil, fmt.Errorf("su2: marker %q element %d is not a line", tag, j)
					}
					if code, _ := strconv.Atoi(fields[0]); code != 3 {
						return nil, fmt.Errorf("su2: marker %q element %d is not a line", tag, j)
					}
					a, _ := strconv.Atoi(fields[1])
					b, _ := strconv.Atoi(fields[2])
					mk.edges = append(mk.edges, [2]int{a, b})
				}
				markers = append(markers, mk)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("su2: %w", err)
	}
	if ndime == 0 {
		return nil, fmt.Errorf("su2: missing NDIME")
	}
	return buildExtruded(name, points, elements, markers, zMin, zMax)
}

func elementType(verts []int) utils.ElementType {
	if len(verts) == 3 {
		return utils.Triangle
	}
	return utils.Quad
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func buildExtruded(name string, points []geom.Point, elements [][]int, markers []su2Marker,
	zMin, zMax float64) (m *Mesh, err error) {
	m = &Mesh{
		Name:        name,
		Cells:       make([]Cell, len(elements)),
		NGeometricD: 2,
	}
	edgeOwner := make(map[[2]int]int)
	for k, verts := range elements {
		ring := make([]geom.Point, len(verts))
		for i, v := range verts {
			if v < 0 || v >= len(points) {
				return nil, fmt.Errorf("su2: element %d references point %d of %d", k, v, len(points))
			}
			ring[i] = points[v]
		}
		for _, e := range utils.GetElementEdges(elementType(verts), verts) {
			edgeOwner[edgeKey(e[0], e[1])] = k
		}
		if m.Cells[k], err = NewCell(ring, zMin, zMax); err != nil {
			return nil, fmt.Errorf("su2: element %d: %w", k, err)
		}
	}
	for _, mk := range markers {
		bc, lookupErr := types.NewBCFLAG(mk.tag)
		if lookupErr != nil {
			bc = types.BC_Patch
		}
		p := Patch{Name: mk.tag, Type: bc}
		for _, e := range mk.edges {
			owner, ok := edgeOwner[edgeKey(e[0], e[1])]
			if !ok {
				return nil, fmt.Errorf("su2: marker %q edge %v is not an element edge", mk.tag, e)
			}
			a, b := points[e[0]], points[e[1]]
			p.Faces = append(p.Faces, Face{
				Centroid: r3.Vec{X: 0.5 * (a.X + b.X), Y: 0.5 * (a.Y + b.Y), Z: 0.5 * (zMin + zMax)},
				Area:     math.Hypot(b.X-a.X, b.Y-a.Y) * (zMax - zMin),
				Owner:    owner,
			})
		}
		m.Patches = append(m.Patches, p)
	}
	m.Patches = append(m.Patches, Patch{Name: "frontAndBack", Type: types.BC_Empty})
	return
}
