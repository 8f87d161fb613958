// Package reconcile merges manually created and auto-generated tasks into a
// single list with one authoritative record per logical work item.
package reconcile

import (
	"strings"

	"studio-go/app/models"
)

const (
	noDeliverable = "none"
	rootParent    = "root"
	keySep        = "::"
)

// Key returns the grouping key of a task: deliverable, parent and the
// trimmed, lowercased title. The task itself is not modified.
func Key(t *models.Task) string {
	deliverable := models.IDValue(t.DeliverableID)
	if deliverable == "" {
		deliverable = noDeliverable
	}
	parent := models.IDValue(t.ParentTaskID)
	if parent == "" {
		parent = rootParent
	}
	return deliverable + keySep + parent + keySep + strings.ToLower(strings.TrimSpace(t.Title))
}

// DedupeTasks drops auto-generated tasks that duplicate a manual task or an
// earlier auto-generated task with the same key. Manual tasks are never
// dropped, and neither are tasks without an id. The result holds the same
// pointers as the input, in input order, and is never nil.
func DedupeTasks(tasks []*models.Task) []*models.Task {
	manualKeys := make(map[string]struct{})
	for _, t := range tasks {
		if t != nil && !t.IsAutoGenerated {
			manualKeys[Key(t)] = struct{}{}
		}
	}

	firstAuto := make(map[string]*models.Task)
	for _, t := range tasks {
		if t == nil || !t.IsAutoGenerated {
			continue
		}
		key := Key(t)
		if _, seen := firstAuto[key]; !seen {
			firstAuto[key] = t
		}
	}

	out := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if keep(t, manualKeys, firstAuto) {
			out = append(out, t)
		}
	}
	return out
}

func keep(t *models.Task, manualKeys map[string]struct{}, firstAuto map[string]*models.Task) bool {
	if !t.HasID() || !t.IsAutoGenerated {
		return true
	}
	key := Key(t)
	if _, ok := manualKeys[key]; ok {
		return false
	}
	return firstAuto[key] == t
}
