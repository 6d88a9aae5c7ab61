package graph

import (
	"fmt"
	"sort"
	"strings"
)

// RootKey is the single Root node every other node is reachable from via
// Has* (spec §3 invariant 1).
var RootKey = Key{Name: "", Kind: Root}

// edge is an internal (ordered) Has/Use edge record.
type edge struct {
	Src, Dst Key
	Label    Label
}

// Store is the graph store (spec §4.1): nodes, containment and use edges,
// with add/lookup/predecessors/remove-empty and a store-scoped gensym
// counter. A counter lives per Store, not as a process global, so tests
// (and independent builds) get deterministic names per spec §9's open
// question on resetting it between builds.
type Store struct {
	nodes map[Key]*Node
	out   map[Key][]edge
	in    map[Key][]edge
	order []Key // node insertion order, for deterministic iteration/dumps

	gensymCounter uint64
}

// NewStore creates an empty graph store with just the Root node.
func NewStore() *Store {
	s := &Store{
		nodes: map[Key]*Node{},
		out:   map[Key][]edge{},
		in:    map[Key][]edge{},
	}
	s.AddNode(RootKey)
	return s
}

// AddNode adds n if absent. Idempotent: a second add on an existing node is
// a no-op at the store level (spec §4.1) — Pass 1's duplicate handling
// (§4.4) decides what a second definition of the same (name, kind) means.
func (s *Store) AddNode(k Key) *Node {
	if n, ok := s.nodes[k]; ok {
		return n
	}
	n := &Node{Key: k}
	s.nodes[k] = n
	s.order = append(s.order, k)
	return n
}

// HasNode reports whether k is present in the graph.
func (s *Store) HasNode(k Key) bool {
	_, ok := s.nodes[k]
	return ok
}

// Node returns k's Node, or nil if absent.
func (s *Store) Node(k Key) *Node {
	return s.nodes[k]
}

// AddEdge adds a Src--Label-->Dst edge. Both endpoints must already exist.
func (s *Store) AddEdge(src, dst Key, label Label) error {
	if !s.HasNode(src) {
		return fmt.Errorf("graph: add edge: missing source node %s/%s", src.Kind, src.Name)
	}
	if !s.HasNode(dst) {
		return fmt.Errorf("graph: add edge: missing destination node %s/%s", dst.Kind, dst.Name)
	}
	e := edge{Src: src, Dst: dst, Label: label}
	s.out[src] = append(s.out[src], e)
	s.in[dst] = append(s.in[dst], e)
	return nil
}

// AttachInfo attaches info to k, one-shot: a second call on a node that
// already carries info is a no-op (spec §4.1 "one-shot per node").
func (s *Store) AttachInfo(k Key, info *Info) {
	n, ok := s.nodes[k]
	if !ok || n.Info != nil {
		return
	}
	n.Info = info
}

// Predecessors enumerates the nodes with a Label edge into k (spec §4.1,
// used by the Adjuster to find a declaration's callers/users).
func (s *Store) Predecessors(k Key, label Label) []Key {
	var out []Key
	for _, e := range s.in[k] {
		if e.Label == label {
			out = append(out, e.Src)
		}
	}
	return out
}

// Successors enumerates the nodes k has a Label edge to.
func (s *Store) Successors(k Key, label Label) []Key {
	var out []Key
	for _, e := range s.out[k] {
		if e.Label == label {
			out = append(out, e.Dst)
		}
	}
	return out
}

// degreeAny reports whether k has any incident edge (either direction, any
// label) — the condition RemoveEmpty checks.
func (s *Store) degreeAny(k Key) bool {
	return len(s.out[k]) > 0 || len(s.in[k]) > 0
}

// RemoveEmpty deletes each listed sink node if and only if it has zero
// incident edges of any label (spec §4.1/§4.6). Idempotent: a node already
// gone, or one that still carries edges, is left untouched.
func (s *Store) RemoveEmpty(sinks []Key) {
	for _, k := range sinks {
		if !s.HasNode(k) {
			continue
		}
		if s.degreeAny(k) {
			continue
		}
		delete(s.nodes, k)
		delete(s.out, k)
		delete(s.in, k)
		for i, ok := range s.order {
			if ok == k {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Gensym returns a process... store-wide monotonic "s__<counter>" name;
// the counter is owned by this Store so collisions are impossible within
// one build and builds stay deterministic across independent Stores.
func (s *Store) Gensym(name string) string {
	s.gensymCounter++
	return fmt.Sprintf("%s__%d", name, s.gensymCounter)
}

// CreateIntermediateDirs ensures Dir nodes exist for every path prefix of
// path (e.g. for "a/b/c/f", nodes "a", "a/b", "a/b/c"), each with a Has
// edge from its parent (Root for the first segment) — spec §4.1.
func (s *Store) CreateIntermediateDirs(path string) error {
	dir := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		dir = path[:idx]
	} else {
		dir = ""
	}
	if dir == "" {
		return nil
	}
	segments := strings.Split(dir, "/")
	parent := RootKey
	built := ""
	for _, seg := range segments {
		if built == "" {
			built = seg
		} else {
			built = built + "/" + seg
		}
		k := Key{Name: built, Kind: Dir}
		if !s.HasNode(k) {
			s.AddNode(k)
			if err := s.AddEdge(parent, k, Has); err != nil {
				return err
			}
		}
		parent = k
	}
	return nil
}

// Nodes returns every node in insertion order (used by RemoveEmpty's
// callers and by DebugYAML).
func (s *Store) Nodes() []*Node {
	out := make([]*Node, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.nodes[k])
	}
	return out
}

// Edges returns every edge, sorted for deterministic output.
func (s *Store) Edges() []Edge {
	var out []Edge
	for _, es := range s.out {
		for _, e := range es {
			out = append(out, Edge{Src: e.Src, Dst: e.Dst, Label: e.Label})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return lessKey(out[i].Src, out[j].Src)
		}
		if out[i].Dst != out[j].Dst {
			return lessKey(out[i].Dst, out[j].Dst)
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func lessKey(a, b Key) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Kind < b.Kind
}

// Edge is the exported, read-only view of a graph edge.
type Edge struct {
	Src, Dst Key
	Label    Label
}
