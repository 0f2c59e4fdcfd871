package tree

import (
	"fmt"
	"sort"

	"hoersaal/internal/domain"
)

// Chain is the resolved ancestry of one folder: the folder names from
// the top of its tree down to the folder itself, the id of the deepest
// ancestor reached, and the course owning that ancestor. Course is empty
// for orphaned trees whose top folder anchors no course.
type Chain struct {
	Names  []string
	Root   int64
	Course string
}

// Paths resolves the ancestry of every folder in the snapshot. Chains
// are memoized as they resolve, so shared ancestry is walked once. A
// parent link that leads back onto the walk in progress aborts the
// whole computation with ErrCycle: a corrupted tree yields no partial
// results.
func Paths(snap *Snapshot) (map[int64]Chain, error) {
	byRoot := snap.courseByRoot()
	resolved := make(map[int64]Chain, len(snap.Folders))

	for start := range snap.Folders {
		if _, done := resolved[start]; done {
			continue
		}

		// Climb toward the root, recording the unresolved stretch.
		var stack []int64
		onStack := make(map[int64]bool)
		cur := start
		for {
			if _, done := resolved[cur]; done {
				break
			}
			if onStack[cur] {
				return nil, fmt.Errorf("%w: folder %d is its own ancestor", domain.ErrCycle, cur)
			}
			f, ok := snap.Folders[cur]
			if !ok {
				// Parent id points at no row. The previous
				// folder on the stack becomes the chain end.
				break
			}
			onStack[cur] = true
			stack = append(stack, cur)
			if f.Parent == nil {
				break
			}
			cur = *f.Parent
		}

		base, haveBase := resolved[cur]

		// Unwind from the chain end back down to the start folder,
		// extending and memoizing as we go.
		for i := len(stack) - 1; i >= 0; i-- {
			id := stack[i]
			f := snap.Folders[id]
			if !haveBase {
				base = Chain{Root: id, Course: byRoot[id]}
				haveBase = true
			}
			if f.Name != nil {
				names := make([]string, 0, len(base.Names)+1)
				names = append(names, base.Names...)
				names = append(names, *f.Name)
				base.Names = names
			}
			resolved[id] = base
		}
	}
	return resolved, nil
}

// AncestorIDs returns the ids on the path from the top of the tree down
// to id, id included. It fails with ErrNotFound for an unknown folder
// and with ErrCycle when the parent chain loops.
func AncestorIDs(snap *Snapshot, id int64) ([]int64, error) {
	if _, ok := snap.Folders[id]; !ok {
		return nil, fmt.Errorf("%w: folder %d", domain.ErrNotFound, id)
	}
	var chain []int64
	seen := make(map[int64]bool)
	cur := id
	for {
		f, ok := snap.Folders[cur]
		if !ok {
			break
		}
		if seen[cur] {
			return nil, fmt.Errorf("%w: folder %d is its own ancestor", domain.ErrCycle, cur)
		}
		seen[cur] = true
		chain = append(chain, cur)
		if f.Parent == nil {
			break
		}
		cur = *f.Parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Descendants returns id and every folder below it, breadth first with
// siblings in id order. Unknown folders fail with ErrNotFound. Cycles
// cannot extend the result because visited folders are never re-queued.
func Descendants(snap *Snapshot, id int64) ([]int64, error) {
	if _, ok := snap.Folders[id]; !ok {
		return nil, fmt.Errorf("%w: folder %d", domain.ErrNotFound, id)
	}
	children := make(map[int64][]int64, len(snap.Folders))
	for fid, f := range snap.Folders {
		if f.Parent != nil {
			children[*f.Parent] = append(children[*f.Parent], fid)
		}
	}
	for _, c := range children {
		sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	}

	out := []int64{id}
	visited := map[int64]bool{id: true}
	for queue := []int64{id}; len(queue) > 0; {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out, nil
}

// Reachable returns the set of folders reachable from any course root.
// Folders outside the set are orphans left behind by course deletion.
func Reachable(snap *Snapshot) map[int64]bool {
	reachable := make(map[int64]bool, len(snap.Folders))
	for _, c := range snap.Courses {
		ids, err := Descendants(snap, c.Root)
		if err != nil {
			continue
		}
		for _, id := range ids {
			reachable[id] = true
		}
	}
	return reachable
}
