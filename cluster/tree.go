package cluster

import "slices"

// linkage is one merge of the single-linkage dendrogram. Ids below n are
// points, id n+i is the node created by the i-th merge.
type linkage struct {
	left, right int
	distance    float64
	size        int
}

func singleLinkage(edges []mstEdge, n int) []linkage {
	parent := make([]int, 2*n-1)
	size := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}
	for i := 0; i < n; i++ {
		size[i] = 1
	}
	find := func(x int) int {
		root := x
		for parent[root] != root {
			root = parent[root]
		}
		for parent[x] != root {
			parent[x], x = root, parent[x]
		}
		return root
	}

	tree := make([]linkage, len(edges))
	for i, e := range edges {
		a, b := find(e.from), find(e.to)
		node := n + i
		parent[a], parent[b] = node, node
		size[node] = size[a] + size[b]
		tree[i] = linkage{left: a, right: b, distance: e.weight, size: size[node]}
	}
	return tree
}

// condensedEdge links a cluster to a child cluster (size > 1) or to a point
// (size 1) that falls out of it at lambda = 1/distance.
type condensedEdge struct {
	parent, child int
	lambda        float64
	size          int
}

// condensedTree is the hierarchy of clusters that stay at least
// minClusterSize large. Cluster ids start at n (the root) and children
// always carry larger ids than their parent.
type condensedTree struct {
	n        int
	next     int
	edges    []condensedEdge
	parent   map[int]int
	birth    map[int]float64
	clusters map[int][]int
}

func lambdaOf(distance float64) float64 {
	if distance <= 0 {
		return 1e12
	}
	return 1 / distance
}

func condense(tree []linkage, n, minClusterSize int) *condensedTree {
	ct := &condensedTree{
		n:        n,
		next:     n + 1,
		parent:   map[int]int{},
		birth:    map[int]float64{n: 0},
		clusters: map[int][]int{},
	}
	sizeOf := func(node int) int {
		if node < n {
			return 1
		}
		return tree[node-n].size
	}
	leaves := func(node int) []int {
		var pts []int
		stack := []int{node}
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if v < n {
				pts = append(pts, v)
				continue
			}
			stack = append(stack, tree[v-n].left, tree[v-n].right)
		}
		return pts
	}
	fallOut := func(cluster, node int, lambda float64) {
		for _, p := range leaves(node) {
			ct.edges = append(ct.edges, condensedEdge{parent: cluster, child: p, lambda: lambda, size: 1})
		}
	}

	root := 2*n - 2
	relabel := map[int]int{root: n}
	queue := []int{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node < n {
			continue
		}
		row := tree[node-n]
		lambda := lambdaOf(row.distance)
		cluster := relabel[node]
		leftBig := sizeOf(row.left) >= minClusterSize
		rightBig := sizeOf(row.right) >= minClusterSize

		switch {
		case leftBig && rightBig:
			for _, child := range []int{row.left, row.right} {
				id := ct.next
				ct.next++
				relabel[child] = id
				ct.parent[id] = cluster
				ct.birth[id] = lambda
				ct.clusters[cluster] = append(ct.clusters[cluster], id)
				ct.edges = append(ct.edges, condensedEdge{parent: cluster, child: id, lambda: lambda, size: sizeOf(child)})
				queue = append(queue, child)
			}
		case leftBig:
			relabel[row.left] = cluster
			queue = append(queue, row.left)
			fallOut(cluster, row.right, lambda)
		case rightBig:
			relabel[row.right] = cluster
			queue = append(queue, row.right)
			fallOut(cluster, row.left, lambda)
		default:
			fallOut(cluster, row.left, lambda)
			fallOut(cluster, row.right, lambda)
		}
	}
	return ct
}

func (ct *condensedTree) stability() map[int]float64 {
	stab := make(map[int]float64, ct.next-ct.n)
	for c := ct.n; c < ct.next; c++ {
		stab[c] = 0
	}
	for _, e := range ct.edges {
		stab[e.parent] += (e.lambda - ct.birth[e.parent]) * float64(e.size)
	}
	return stab
}

// descendants returns every cluster below c.
func (ct *condensedTree) descendants(c int) []int {
	var out []int
	stack := slices.Clone(ct.clusters[c])
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, v)
		stack = append(stack, ct.clusters[v]...)
	}
	return out
}

// selectEOM picks the clusters maximizing total stability (excess of mass).
func (ct *condensedTree) selectEOM(allowSingle bool) map[int]bool {
	stab := ct.stability()
	selected := make(map[int]bool)
	for c := ct.next - 1; c >= ct.n; c-- {
		if c == ct.n && !allowSingle {
			continue
		}
		var childSum float64
		for _, child := range ct.clusters[c] {
			childSum += stab[child]
		}
		if childSum > stab[c] {
			stab[c] = childSum
			continue
		}
		selected[c] = true
		for _, d := range ct.descendants(c) {
			delete(selected, d)
		}
	}
	return selected
}

// epsilonSearch replaces clusters born below epsilon (in distance terms)
// with the closest ancestor born above it.
func (ct *condensedTree) epsilonSearch(selected map[int]bool, epsilon float64, allowSingle bool) map[int]bool {
	out := make(map[int]bool)
	processed := make(map[int]bool)
	ids := make([]int, 0, len(selected))
	for c := range selected {
		ids = append(ids, c)
	}
	slices.Sort(ids)

	for _, c := range ids {
		if c == ct.n || 1/ct.birth[c] >= epsilon {
			out[c] = true
			continue
		}
		if processed[c] {
			continue
		}
		target := ct.traverseUp(c, epsilon, allowSingle)
		out[target] = true
		for _, d := range ct.descendants(target) {
			processed[d] = true
			delete(out, d)
		}
	}
	return out
}

func (ct *condensedTree) traverseUp(leaf int, epsilon float64, allowSingle bool) int {
	for {
		p := ct.parent[leaf]
		if p == ct.n {
			if allowSingle {
				return p
			}
			return leaf
		}
		if 1/ct.birth[p] > epsilon {
			return p
		}
		leaf = p
	}
}

// label assigns each point the id of the selected cluster it belongs to,
// renumbered from 0 in cluster-id order. Other points stay Noise.
func (ct *condensedTree) label(selected map[int]bool, labels []int) {
	ids := make([]int, 0, len(selected))
	for c := range selected {
		ids = append(ids, c)
	}
	slices.Sort(ids)
	number := make(map[int]int, len(ids))
	for i, c := range ids {
		number[c] = i
	}

	for _, e := range ct.edges {
		if e.size != 1 {
			continue
		}
		for c := e.parent; ; c = ct.parent[c] {
			if selected[c] {
				labels[e.child] = number[c]
				break
			}
			if c == ct.n {
				break
			}
		}
	}
}
