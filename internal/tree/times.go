package tree

import (
	"fmt"
	"time"

	"hoersaal/internal/domain"
)

// MaxTimes computes, for every folder that has at least one file in its
// subtree, the latest remote modification time found there. Each file
// contributes its date to every ancestor, so a course root carries the
// newest change anywhere in the course. Folders with no files below
// them have no entry. A looping parent chain aborts with ErrCycle.
func MaxTimes(snap *Snapshot) (map[int64]time.Time, error) {
	out := make(map[int64]time.Time)
	for _, f := range snap.Files {
		cur := f.Folder
		seen := make(map[int64]bool)
		for {
			folder, ok := snap.Folders[cur]
			if !ok {
				break
			}
			if seen[cur] {
				return nil, fmt.Errorf("%w: folder %d is its own ancestor", domain.ErrCycle, cur)
			}
			seen[cur] = true
			if prev, ok := out[cur]; !ok || f.RemoteDate.After(prev) {
				out[cur] = f.RemoteDate
			}
			if folder.Parent == nil {
				break
			}
			cur = *folder.Parent
		}
	}
	return out, nil
}
