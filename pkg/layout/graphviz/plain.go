package graphviz

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/neatgraph/neatgraph/pkg/diagram"
	"github.com/neatgraph/neatgraph/pkg/layout"
)

// parsePlain reads Graphviz plain output back into a layout result.
//
// The plain format is line oriented:
//
//	graph scale width height
//	node name x y width height label style shape color fillcolor
//	edge tail head n x1 y1 .. xn yn [label xl yl] style color
//	stop
//
// All coordinates are inches with the origin at the bottom-left and node
// coordinates at the box center. Everything is converted to points with a
// top-left origin here, so downstream code never sees engine conventions.
//
// Entries that cannot be matched against the generating document (nodes or
// edges Graphviz invented, or pairs already drained) are dropped silently;
// structurally malformed output is an engine failure and returns an error.
func parsePlain(out []byte, doc *document) (*layout.Result, error) {
	res := &layout.Result{}
	pending := make(map[edgeKey][]string, len(doc.edgeIDs))
	for k, v := range doc.edgeIDs {
		pending[k] = v
	}

	var (
		factor     float64 // inches to points, including the graph scale
		height     float64 // graph height in inches, for the y flip
		seenHeader bool
	)

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := splitPlain(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "graph":
			nums, err := parseFloats(fields, 1, 3, lineNo)
			if err != nil {
				return nil, err
			}
			scale := nums[0]
			if scale <= 0 {
				scale = 1
			}
			factor = scale * pointsPerInch
			height = nums[2]
			res.Width = nums[1] * factor
			res.Height = height * factor
			seenHeader = true

		case "node":
			if !seenHeader {
				return nil, fmt.Errorf("plain output line %d: node before graph header", lineNo)
			}
			if len(fields) < 6 {
				return nil, fmt.Errorf("plain output line %d: truncated node", lineNo)
			}
			id, ok := doc.nodeIDs[fields[1]]
			if !ok {
				continue
			}
			nums, err := parseFloats(fields, 2, 4, lineNo)
			if err != nil {
				return nil, err
			}
			x, y, w, h := nums[0], nums[1], nums[2], nums[3]
			res.Nodes = append(res.Nodes, layout.NodeResult{
				ID:     id,
				X:      (x - w/2) * factor,
				Y:      (height - y - h/2) * factor,
				Width:  w * factor,
				Height: h * factor,
			})

		case "edge":
			if !seenHeader {
				return nil, fmt.Errorf("plain output line %d: edge before graph header", lineNo)
			}
			if len(fields) < 4 {
				return nil, fmt.Errorf("plain output line %d: truncated edge", lineNo)
			}
			n, err := strconv.Atoi(fields[3])
			if err != nil || n < 2 {
				return nil, fmt.Errorf("plain output line %d: bad point count %q", lineNo, fields[3])
			}
			if len(fields) < 4+2*n {
				return nil, fmt.Errorf("plain output line %d: %d points promised, fewer present", lineNo, n)
			}

			// Parallel edges repeat the same alias pair, so drain the queue
			// front to back. Pairs Graphviz added on its own are dropped.
			key := edgeKey{tail: fields[1], head: fields[2]}
			queue := pending[key]
			if len(queue) == 0 {
				continue
			}
			id := queue[0]
			pending[key] = queue[1:]

			nums, err := parseFloats(fields, 4, 2*n, lineNo)
			if err != nil {
				return nil, err
			}
			pts := make([]diagram.Point, n)
			for i := 0; i < n; i++ {
				pts[i] = diagram.Point{
					X: nums[2*i] * factor,
					Y: (height - nums[2*i+1]) * factor,
				}
			}
			section := layout.Section{Start: pts[0], End: pts[n-1]}
			if n > 2 {
				section.Bends = pts[1 : n-1]
			}
			res.Edges = append(res.Edges, layout.EdgeRoute{
				ID:       id,
				Sections: []layout.Section{section},
			})

		case "stop":
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("scan plain output: %w", err)
			}
			if !seenHeader {
				return nil, fmt.Errorf("plain output: missing graph header")
			}
			return res, nil
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan plain output: %w", err)
	}
	return nil, fmt.Errorf("plain output: missing stop line")
}

func parseFloats(fields []string, start, count, lineNo int) ([]float64, error) {
	if start+count > len(fields) {
		return nil, fmt.Errorf("plain output line %d: expected %d numbers", lineNo, count)
	}
	nums := make([]float64, count)
	for i := 0; i < count; i++ {
		v, err := strconv.ParseFloat(fields[start+i], 64)
		if err != nil {
			return nil, fmt.Errorf("plain output line %d: %q is not a number", lineNo, fields[start+i])
		}
		nums[i] = v
	}
	return nums, nil
}

// splitPlain splits a plain output line on spaces, honoring double-quoted
// fields so labels with whitespace stay intact.
func splitPlain(line string) []string {
	var fields []string
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		if line[i] == '"' {
			i++
			var sb strings.Builder
			for i < len(line) && line[i] != '"' {
				if line[i] == '\\' && i+1 < len(line) {
					i++
				}
				sb.WriteByte(line[i])
				i++
			}
			i++ // closing quote
			fields = append(fields, sb.String())
			continue
		}
		start := i
		for i < len(line) && line[i] != ' ' && line[i] != '\t' {
			i++
		}
		fields = append(fields, line[start:i])
	}
	return fields
}
