package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ID identifies a record. Upstream systems send ids either as JSON strings or
// as numbers, so both decode into the same string form. Integral numbers
// are written in canonical decimal form, so 1, 1.0 and 1e0 are all "1".
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(canonicalNumber(n))
	return nil
}

// maxExactFloat is the largest magnitude below which every integer has an
// exact float64 representation.
const maxExactFloat = 1 << 53

func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err == nil && f == math.Trunc(f) && math.Abs(f) < maxExactFloat {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// String returns the id as a plain string.
func (id ID) String() string {
	return string(id)
}

// IDPtr returns a pointer to the given id, or nil for a blank one.
func IDPtr(s string) *ID {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	id := ID(s)
	return &id
}

// IDValue dereferences an optional id, returning "" when absent.
func IDValue(id *ID) string {
	if id == nil {
		return ""
	}
	return string(*id)
}

// Task represents a task with optional deliverable and parent.
// Auto-generated tasks are placeholders created from templates.
type Task struct {
	ID              *ID       `json:"id"`
	CompanyID       string    `json:"company_id,omitempty"`
	DeliverableID   *ID       `json:"deliverable_id,omitempty"`
	ParentTaskID    *ID       `json:"parent_task_id,omitempty"`
	Title           string    `json:"title"`
	Completed       bool      `json:"completed"`
	IsAutoGenerated bool      `json:"is_auto_generated"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasID reports whether the task carries a usable id.
func (t *Task) HasID() bool {
	return t.ID != nil && *t.ID != ""
}

// TaskUpdate holds the fields a PUT may change. Nil fields are left alone.
type TaskUpdate struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}
