package graph

import "gopkg.in/yaml.v3"

// dumpNode and dumpEdge are the plain, serialization-friendly shapes used
// by DebugYAML — mirroring the teacher's own habit of rendering its graph
// values through yaml.v3 in tests rather than hand-rolled formatting.
type dumpNode struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

type dumpEdge struct {
	Src   dumpNode `yaml:"src"`
	Dst   dumpNode `yaml:"dst"`
	Label string   `yaml:"label"`
}

type dump struct {
	Nodes []dumpNode `yaml:"nodes"`
	Edges []dumpEdge `yaml:"edges"`
}

// DebugYAML renders the graph's nodes and edges as YAML, in deterministic
// order. This is a debugging/test aid, not the on-disk graph persistence
// format (which stays out of scope per spec §1/§6).
func (s *Store) DebugYAML() (string, error) {
	d := dump{}
	for _, n := range s.Nodes() {
		d.Nodes = append(d.Nodes, dumpNode{Name: n.Name, Kind: n.Kind.String()})
	}
	for _, e := range s.Edges() {
		d.Edges = append(d.Edges, dumpEdge{
			Src:   dumpNode{Name: e.Src.Name, Kind: e.Src.Kind.String()},
			Dst:   dumpNode{Name: e.Dst.Name, Kind: e.Dst.Kind.String()},
			Label: e.Label.String(),
		})
	}
	out, err := yaml.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
