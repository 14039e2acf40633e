// Package dag provides a directed acyclic graph that refuses edges which
// would close a cycle.
package dag

import "fmt"

// CycleError is returned by AddEdge when the edge would close a cycle.
type CycleError struct {
	// Path lists the vertices of the cycle, starting and ending with the
	// source of the rejected edge.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %v", e.Path)
}

// Graph is a directed graph kept acyclic by AddEdge.
// Vertices are created implicitly. The zero value is ready to use.
type Graph struct {
	edges map[string][]string
	seen  map[[2]string]bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// AddEdge inserts from -> to.
// It returns a *CycleError and leaves the graph unchanged when to can
// already reach from, including the self-loop from == to.
func (g *Graph) AddEdge(from, to string) error {
	if g.edges == nil {
		g.edges = make(map[string][]string)
		g.seen = make(map[[2]string]bool)
	}
	if from == to {
		return &CycleError{Path: []string{from, to}}
	}
	if g.seen[[2]string{from, to}] {
		return nil
	}
	if path := g.pathBetween(to, from); path != nil {
		return &CycleError{Path: append([]string{from}, path...)}
	}
	g.edges[from] = append(g.edges[from], to)
	g.seen[[2]string{from, to}] = true
	return nil
}

// HasEdge reports whether from -> to was added.
func (g *Graph) HasEdge(from, to string) bool {
	return g.seen[[2]string{from, to}]
}

// pathBetween returns a path from src to dst, or nil if none exists.
func (g *Graph) pathBetween(src, dst string) []string {
	visited := make(map[string]bool)
	var walk func(v string) []string
	walk = func(v string) []string {
		if v == dst {
			return []string{v}
		}
		if visited[v] {
			return nil
		}
		visited[v] = true
		for _, next := range g.edges[v] {
			if rest := walk(next); rest != nil {
				return append([]string{v}, rest...)
			}
		}
		return nil
	}
	return walk(src)
}
