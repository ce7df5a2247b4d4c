package layered

import "sort"

// order groups members by layer and reduces crossings with alternating
// barycenter sweeps. Members start in input order; ties keep their relative
// order, which keeps the result deterministic.
func order(g *digraph, rank []int, sweeps int) [][]int {
	depth := 0
	for _, r := range rank {
		if r+1 > depth {
			depth = r + 1
		}
	}
	rows := make([][]int, depth)
	for v, r := range rank {
		rows[r] = append(rows[r], v)
	}

	pos := make([]float64, g.n)
	reindex := func(row []int) {
		for i, v := range row {
			pos[v] = float64(i)
		}
	}
	for _, row := range rows {
		reindex(row)
	}

	sweep := func(row []int, adj [][]int) {
		key := make(map[int]float64, len(row))
		for _, v := range row {
			if len(adj[v]) == 0 {
				key[v] = pos[v]
				continue
			}
			sum := 0.0
			for _, w := range adj[v] {
				sum += pos[w]
			}
			key[v] = sum / float64(len(adj[v]))
		}
		sort.SliceStable(row, func(i, j int) bool { return key[row[i]] < key[row[j]] })
		reindex(row)
	}

	for s := 0; s < sweeps; s++ {
		if s%2 == 0 {
			for k := 1; k < len(rows); k++ {
				sweep(rows[k], g.pred)
			}
		} else {
			for k := len(rows) - 2; k >= 0; k-- {
				sweep(rows[k], g.succ)
			}
		}
	}
	return rows
}
