package scheduler

import "sort"

// detectCycles finds cycles in the wait-for graph. edges maps a waiting pid
// to the pid owning the resource it waits on; since a process waits on at
// most one resource, every node has at most one outgoing edge. The traversal
// keeps all state in locals, mutates nothing, and visits pids in ascending
// order so repeated calls over the same graph report identical cycles.
func detectCycles(edges map[uint64]uint64) [][]uint64 {
	pids := make([]uint64, 0, len(edges))
	for pid := range edges {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	visited := make(map[uint64]bool, len(edges))
	var cycles [][]uint64
	for _, start := range pids {
		if visited[start] {
			continue
		}
		// Walk the single outgoing edge chain, keeping the path as the
		// recursion stack.
		var path []uint64
		onPath := make(map[uint64]int)
		node := start
		for {
			if pos, ok := onPath[node]; ok {
				cycle := make([]uint64, len(path)-pos)
				copy(cycle, path[pos:])
				cycles = append(cycles, cycle)
				break
			}
			if visited[node] {
				break
			}
			onPath[node] = len(path)
			path = append(path, node)
			next, ok := edges[node]
			if !ok {
				break
			}
			node = next
		}
		for _, pid := range path {
			visited[pid] = true
		}
	}
	return cycles
}
