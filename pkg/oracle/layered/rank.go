package layered

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// digraph is the lifted edge set of one scope over n members.
type digraph struct {
	n    int
	succ [][]int
	pred [][]int
}

func newDigraph(n int) *digraph {
	return &digraph{n: n, succ: make([][]int, n), pred: make([][]int, n)}
}

// add inserts s→t unless it is a self loop or already present.
func (g *digraph) add(s, t int) {
	if s == t {
		return
	}
	for _, x := range g.succ[s] {
		if x == t {
			return
		}
	}
	g.succ[s] = append(g.succ[s], t)
	g.pred[t] = append(g.pred[t], s)
}

// acyclic returns a copy of g with every DFS back edge reversed. The DFS
// visits members in index order so the result is deterministic.
func (g *digraph) acyclic() *digraph {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, g.n)
	out := newDigraph(g.n)

	var dfs func(v int)
	dfs = func(v int) {
		color[v] = gray
		for _, w := range g.succ[v] {
			switch color[w] {
			case white:
				out.add(v, w)
				dfs(w)
			case gray:
				out.add(w, v)
			default:
				out.add(v, w)
			}
		}
		color[v] = black
	}
	for v := 0; v < g.n; v++ {
		if color[v] == white {
			dfs(v)
		}
	}
	return out
}

// layers assigns each member of the acyclic graph g to a layer: sources are
// at layer 0 and every other member sits one past its deepest predecessor.
func layers(g *digraph) ([]int, error) {
	dg := simple.NewDirectedGraph()
	for v := 0; v < g.n; v++ {
		dg.AddNode(simple.Node(v))
	}
	for v, ws := range g.succ {
		for _, w := range ws {
			dg.SetEdge(dg.NewEdge(simple.Node(v), simple.Node(w)))
		}
	}

	sorted, err := topo.Sort(dg)
	if err != nil {
		return nil, err
	}

	rank := make([]int, g.n)
	for _, node := range sorted {
		v := int(node.ID())
		preds := dg.To(node.ID())
		for preds.Next() {
			if r := rank[preds.Node().ID()] + 1; r > rank[v] {
				rank[v] = r
			}
		}
	}
	return rank, nil
}
