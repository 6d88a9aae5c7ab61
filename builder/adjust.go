package builder

import (
	"strings"

	"github.com/viant/cxref/graph"
)

// adjust runs the optional decl-to-def propagation pass (spec §4.6,
// enabled by Config.PropagateDepsDefToDecl) over the three decl/def pairs
// the spec names: prototype/function, extern global/global, and typedef
// type T__x/struct tag S__x. For each decl with a matching def: add the
// Use edge def → decl (binding the decl into the graph so it survives
// pruning), then for every predecessor u of def, add u → decl, so a
// consumer that navigates by declaration still sees def's callers.
func adjust(g *graph.Store) {
	funcDefs := map[string]graph.Key{}
	globalDefs := map[string]graph.Key{}
	tagDefs := map[string]graph.Key{}
	for _, n := range g.Nodes() {
		switch {
		case n.Kind == graph.Function:
			funcDefs[n.Name] = n.Key
		case n.Kind == graph.Global:
			globalDefs[n.Name] = n.Key
		case n.Kind == graph.Type && strings.HasPrefix(n.Name, "S__"):
			tagDefs[strings.TrimPrefix(n.Name, "S__")] = n.Key
		}
	}

	for _, n := range g.Nodes() {
		var def graph.Key
		var ok bool
		switch {
		case n.Kind == graph.Prototype:
			def, ok = funcDefs[n.Name]
		case n.Kind == graph.GlobalExtern:
			def, ok = globalDefs[n.Name]
		case n.Kind == graph.Type && strings.HasPrefix(n.Name, "T__"):
			def, ok = tagDefs[strings.TrimPrefix(n.Name, "T__")]
		}
		if !ok {
			continue
		}
		propagate(g, def, n.Key)
	}
}

// propagate adds def → decl and, for every existing predecessor u of def,
// u → decl.
func propagate(g *graph.Store, def, decl graph.Key) {
	addUseIfAbsent(g, def, decl)
	for _, caller := range g.Predecessors(def, graph.Use) {
		addUseIfAbsent(g, caller, decl)
	}
}

func addUseIfAbsent(g *graph.Store, src, dst graph.Key) {
	for _, s := range g.Successors(src, graph.Use) {
		if s == dst {
			return
		}
	}
	_ = g.AddEdge(src, dst, graph.Use)
}
