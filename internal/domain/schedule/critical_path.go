package schedule

import (
	"sort"

	"github.com/projectledger/projectledger/internal/domain/milestone"
	"github.com/projectledger/projectledger/internal/types"
	"github.com/samber/lo"
)

// CriticalPath is the longest root-to-leaf duration chain of a forest.
type CriticalPath struct {
	PathIDs           []string `json:"path_ids"`
	TotalDurationDays int      `json:"total_duration_days"`
}

// Contains reports whether the milestone lies on the path.
func (c CriticalPath) Contains(id string) bool {
	return lo.Contains(c.PathIDs, id)
}

// LongestChain returns the chain with the largest summed planned duration. Every successor branch
// is considered; on equal durations the branch reached first in input order wins.
func LongestChain(milestones []*milestone.Milestone) (CriticalPath, error) {
	forest, err := BuildForest(milestones)
	if err != nil {
		return CriticalPath{}, err
	}
	return longestChain(forest, durationsByID(milestones)), nil
}

func durationsByID(milestones []*milestone.Milestone) map[string]int {
	return lo.SliceToMap(milestones, func(m *milestone.Milestone) (string, int) {
		return m.ID, m.PlannedDurationDays()
	})
}

// longestChain evaluates nodes deepest level first so every child's best chain is known before
// its parent's. No recursion is needed since the forest is already cycle-checked.
func longestChain(f *Forest, durations map[string]int) CriticalPath {
	ids := f.Order()
	sort.SliceStable(ids, func(i, j int) bool {
		return f.Nodes[ids[i]].Level > f.Nodes[ids[j]].Level
	})

	best := make(map[string]int, len(ids))
	next := make(map[string]string, len(ids))
	for _, id := range ids {
		node := f.Nodes[id]
		bestChild, bestChildTotal := "", 0
		for _, child := range node.Children {
			if bestChild == "" || best[child] > bestChildTotal {
				bestChild, bestChildTotal = child, best[child]
			}
		}
		best[id] = durations[id] + bestChildTotal
		if bestChild != "" {
			next[id] = bestChild
		}
	}

	start, total := "", 0
	for _, root := range f.Roots {
		if start == "" || best[root] > total {
			start, total = root, best[root]
		}
	}
	if start == "" {
		return CriticalPath{PathIDs: []string{}}
	}

	path := []string{start}
	for id := start; next[id] != ""; id = next[id] {
		path = append(path, next[id])
	}

	return CriticalPath{PathIDs: path, TotalDurationDays: total}
}

// OverallSpanDays is ceil(max(plannedEnd) - min(plannedStart)) across the set.
func OverallSpanDays(milestones []*milestone.Milestone) int {
	if len(milestones) == 0 {
		return 0
	}
	minStart, maxEnd := milestones[0].PlannedStart, milestones[0].PlannedEnd
	for _, m := range milestones[1:] {
		if m.PlannedStart.Before(minStart) {
			minStart = m.PlannedStart
		}
		if m.PlannedEnd.After(maxEnd) {
			maxEnd = m.PlannedEnd
		}
	}
	return types.CeilDays(minStart, maxEnd)
}

// BufferDays is the slack between the overall span and the critical path, never negative.
func BufferDays(milestones []*milestone.Milestone, path CriticalPath) int {
	return lo.Max([]int{0, OverallSpanDays(milestones) - path.TotalDurationDays})
}
