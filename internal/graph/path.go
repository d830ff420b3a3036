package graph

// FindPath returns the shortest call chain from -> ... -> to of at most
// maxHops edges, or nil when none exists. Neighbours are visited in ID order
// so the returned path is deterministic.
func (g *Graph) FindPath(from, to string, maxHops int) []string {
	if maxHops <= 0 {
		return nil
	}
	if _, ok := g.Nodes[from]; !ok {
		return nil
	}
	if _, ok := g.Nodes[to]; !ok {
		return nil
	}

	type queueItem struct {
		id    string
		depth int
	}

	parent := map[string]string{from: ""}
	queue := []queueItem{{id: from}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxHops {
			continue
		}
		for _, next := range g.CalleesOf(cur.id) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur.id
			if next == to {
				return buildPath(parent, from, to)
			}
			queue = append(queue, queueItem{id: next, depth: cur.depth + 1})
		}
	}
	return nil
}

func buildPath(parent map[string]string, from, to string) []string {
	var rev []string
	for cur := to; ; cur = parent[cur] {
		rev = append(rev, cur)
		if cur == from {
			break
		}
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}
