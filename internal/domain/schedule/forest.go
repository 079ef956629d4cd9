package schedule

import (
	"github.com/projectledger/projectledger/internal/domain/milestone"
	ierr "github.com/projectledger/projectledger/internal/errors"
)

// Node is one milestone in the dependency forest.
type Node struct {
	ID       string   `json:"id"`
	ParentID string   `json:"parent_id,omitempty"`
	Children []string `json:"children"`
	Level    int      `json:"level"`

	// MissingPredecessor is set when the milestone names a predecessor that is not part of the
	// snapshot. The node is then treated as a root.
	MissingPredecessor bool `json:"missing_predecessor,omitempty"`
}

// Forest is the single-predecessor dependency structure of a milestone set. Roots and every
// Children list follow the input order of the milestones.
type Forest struct {
	Nodes map[string]*Node `json:"nodes"`
	Roots []string         `json:"roots"`
	order []string
}

// BuildForest links each milestone under its predecessor and computes node levels.
// A predecessor chain that loops back on itself fails with ErrCycleDetected.
func BuildForest(milestones []*milestone.Milestone) (*Forest, error) {
	f := &Forest{
		Nodes: make(map[string]*Node, len(milestones)),
		order: make([]string, 0, len(milestones)),
	}

	for _, m := range milestones {
		if _, dup := f.Nodes[m.ID]; dup {
			return nil, ierr.NewError("duplicate milestone id").
				WithHint("Each milestone may appear once in a schedule").
				WithReportableDetails(map[string]interface{}{"milestone_id": m.ID}).
				Mark(ierr.ErrValidation)
		}
		node := &Node{ID: m.ID, Children: []string{}}
		if m.HasPredecessor() {
			node.ParentID = *m.PredecessorID
		}
		f.Nodes[m.ID] = node
		f.order = append(f.order, m.ID)
	}

	for _, id := range f.order {
		node := f.Nodes[id]
		if node.ParentID == "" {
			continue
		}
		parent, ok := f.Nodes[node.ParentID]
		if !ok {
			node.MissingPredecessor = true
			continue
		}
		parent.Children = append(parent.Children, id)
	}

	if err := f.computeLevels(); err != nil {
		return nil, err
	}

	for _, id := range f.order {
		if f.Nodes[id].isRoot() {
			f.Roots = append(f.Roots, id)
		}
	}

	return f, nil
}

func (n *Node) isRoot() bool {
	return n.ParentID == "" || n.MissingPredecessor
}

// computeLevels walks parent links iteratively. Each walk stops at a root or at a node whose level
// is already known; meeting a node twice within one walk is a cycle.
func (f *Forest) computeLevels() error {
	known := make(map[string]bool, len(f.Nodes))

	for _, start := range f.order {
		if known[start] {
			continue
		}

		var path []string
		onPath := make(map[string]bool)
		base := -1

		for id := start; ; {
			if onPath[id] {
				return cycleError(path, id)
			}
			node := f.Nodes[id]
			if known[id] {
				base = node.Level
				break
			}
			path = append(path, id)
			onPath[id] = true
			if node.isRoot() {
				break
			}
			id = node.ParentID
		}

		// path runs from start up towards the root; assign levels top-down
		for i := len(path) - 1; i >= 0; i-- {
			base++
			f.Nodes[path[i]].Level = base
			known[path[i]] = true
		}
	}
	return nil
}

func cycleError(path []string, repeated string) error {
	cycle := []string{}
	inCycle := false
	for _, id := range path {
		if id == repeated {
			inCycle = true
		}
		if inCycle {
			cycle = append(cycle, id)
		}
	}
	cycle = append(cycle, repeated)

	return ierr.NewError("milestone predecessor cycle detected").
		WithHint("A milestone cannot depend on itself directly or through its predecessors").
		WithReportableDetails(map[string]interface{}{"cycle": cycle}).
		Mark(ierr.ErrCycleDetected)
}

// Order returns milestone ids in input order.
func (f *Forest) Order() []string {
	return append([]string(nil), f.order...)
}

// Levels returns a copy of every node's level keyed by id.
func (f *Forest) Levels() map[string]int {
	levels := make(map[string]int, len(f.Nodes))
	for id, n := range f.Nodes {
		levels[id] = n.Level
	}
	return levels
}
