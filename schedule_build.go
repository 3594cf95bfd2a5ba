package ecs

// setInfo is one flattened, indexed entry of a schedule's build cache
// (spec.md §4.4): the set itself plus resolved hierarchy (parents/
// children) and ordering (dependsOn/succeeds) edges, and the two
// counters the run loop decrements as work completes.
type setInfo struct {
	set      *SystemSet
	index    int
	parents  []int
	children []int
	dependsOn []int
	succeeds  []int

	cachedChildrenCount int
	cachedDependsCount  int
}

// scheduleCache is the flattened index-array form of a schedule's set
// map, rebuilt whenever the map has been edited since the last build.
type scheduleCache struct {
	order   []*setInfo
	indexOf map[SystemSetLabel]int
}

// buildSets completes symmetric links and flattens the set map into a
// scheduleCache, per spec.md §4.4. Returns the existing cache unchanged
// if nothing has been edited since the last build.
func (s *Schedule) buildSets() (*scheduleCache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty && s.cache != nil {
		return s.cache, nil
	}

	indexOf := make(map[SystemSetLabel]int, len(s.insertionOrder))
	infos := make([]*setInfo, 0, len(s.insertionOrder))
	for _, label := range s.insertionOrder {
		set, ok := s.sets[label]
		if !ok {
			continue
		}
		indexOf[label] = len(infos)
		infos = append(infos, &setInfo{set: set, index: len(infos)})
	}

	for i, info := range infos {
		for _, p := range info.set.InSets {
			if pi, ok := indexOf[p]; ok {
				info.parents = append(info.parents, pi)
				infos[pi].children = append(infos[pi].children, i)
			}
		}
	}

	edgeExists := make(map[[2]int]bool)
	addEdge := func(from, to int) {
		if from == to {
			return
		}
		key := [2]int{from, to}
		if edgeExists[key] {
			return
		}
		edgeExists[key] = true
		infos[from].succeeds = append(infos[from].succeeds, to)
		infos[to].dependsOn = append(infos[to].dependsOn, from)
	}
	for i, info := range infos {
		for _, d := range info.set.Depends {
			if di, ok := indexOf[d]; ok {
				addEdge(di, i)
			}
		}
		for _, t := range info.set.Succeeds {
			if ti, ok := indexOf[t]; ok {
				addEdge(i, ti)
			}
		}
	}

	if cyc := detectCycle(len(infos), func(n int) []int { return infos[n].succeeds }); cyc != nil {
		return nil, &SchedulePrepareError{Kind: CyclicDependency, AssociatedLabels: labelsFor(infos, cyc)}
	}
	if cyc := detectCycle(len(infos), func(n int) []int { return infos[n].children }); cyc != nil {
		return nil, &SchedulePrepareError{Kind: CyclicHierarchy, AssociatedLabels: labelsFor(infos, cyc)}
	}

	reach := transitiveSucceeds(infos)
	for i := range infos {
		ancestors := ancestorsOf(infos, i)
		for a := 0; a < len(ancestors); a++ {
			for b := a + 1; b < len(ancestors); b++ {
				x, y := ancestors[a], ancestors[b]
				if reach[x][y] || reach[y][x] {
					return nil, &SchedulePrepareError{
						Kind:             ParentsWithDeps,
						AssociatedLabels: []SystemSetLabel{infos[x].set.Label, infos[y].set.Label},
					}
				}
			}
		}
	}

	for _, info := range infos {
		info.cachedDependsCount = len(info.dependsOn)
		count := len(info.children)
		if info.set.System != nil {
			count++
		}
		info.cachedChildrenCount = count
	}

	cache := &scheduleCache{order: infos, indexOf: indexOf}
	s.cache = cache
	s.dirty = false
	return cache, nil
}

// detectCycle runs a recursive DFS over 0..n-1 via neighbors, returning
// the cycle (as a path of indices) if one exists, or nil.
func detectCycle(n int, neighbors func(int) []int) []int {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, n)
	var stack []int
	var cycle []int

	var visit func(u int) bool
	visit = func(u int) bool {
		color[u] = gray
		stack = append(stack, u)
		for _, v := range neighbors(u) {
			if color[v] == gray {
				idx := indexOfInt(stack, v)
				cycle = append([]int(nil), stack[idx:]...)
				return true
			}
			if color[v] == white {
				if visit(v) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[u] = black
		return false
	}

	for u := 0; u < n; u++ {
		if color[u] == white {
			if visit(u) {
				return cycle
			}
		}
	}
	return nil
}

func indexOfInt(haystack []int, needle int) int {
	for i, v := range haystack {
		if v == needle {
			return i
		}
	}
	return -1
}

func labelsFor(infos []*setInfo, idxs []int) []SystemSetLabel {
	out := make([]SystemSetLabel, len(idxs))
	for i, idx := range idxs {
		out[i] = infos[idx].set.Label
	}
	return out
}

// transitiveSucceeds returns, for every index i, the set of indices
// transitively reachable from i via succeeds edges — i.e. every set that
// must run at or after i once dependsOn/succeeds edges are chained, not
// just i's direct successors. Two ancestors of the same set are
// "transitively ordered" (spec.md §7, ParentsWithDeps) exactly when one
// is reachable from the other here, even with no direct edge between
// them.
func transitiveSucceeds(infos []*setInfo) []map[int]bool {
	reach := make([]map[int]bool, len(infos))
	for i := range infos {
		seen := make(map[int]bool)
		var visit func(n int)
		visit = func(n int) {
			for _, next := range infos[n].succeeds {
				if !seen[next] {
					seen[next] = true
					visit(next)
				}
			}
		}
		visit(i)
		reach[i] = seen
	}
	return reach
}

// ancestorsOf returns i plus every transitive in_sets parent of i.
func ancestorsOf(infos []*setInfo, i int) []int {
	seen := map[int]bool{i: true}
	queue := []int{i}
	out := []int{i}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range infos[cur].parents {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
				queue = append(queue, p)
			}
		}
	}
	return out
}
