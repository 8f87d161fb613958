package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ID
	}{
		{name: "string", input: `"1"`, want: "1"},
		{name: "integer", input: `1`, want: "1"},
		{name: "integral decimal", input: `1.0`, want: "1"},
		{name: "exponent", input: `1e2`, want: "100"},
		{name: "negative zero", input: `-0.0`, want: "0"},
		{name: "fraction kept", input: `1.5`, want: "1.5"},
		{name: "beyond exact float range", input: `1e20`, want: "1e20"},
		{name: "string is not normalized", input: `"1.0"`, want: "1.0"},
		{name: "uuid", input: `"0a2967f0-7c1e-4a52-9b1d-3f1f5c8e2a10"`, want: "0a2967f0-7c1e-4a52-9b1d-3f1f5c8e2a10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.input), &id))
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestID_UnmarshalJSONRejectsOtherTypes(t *testing.T) {
	for _, input := range []string{`true`, `{}`, `[1]`} {
		var id ID
		assert.Error(t, json.Unmarshal([]byte(input), &id), input)
	}
}

func TestTask_NumericIDsShareOneForm(t *testing.T) {
	var tasks []*Task
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id": 1, "title": "Edit", "deliverable_id": 7.0},
		{"id": 1.0, "title": "Edit", "deliverable_id": "7"},
		{"id": null, "title": "Grade"}
	]`), &tasks))

	require.Len(t, tasks, 3)
	assert.Equal(t, IDValue(tasks[0].ID), IDValue(tasks[1].ID))
	assert.Equal(t, IDValue(tasks[0].DeliverableID), IDValue(tasks[1].DeliverableID))
	assert.False(t, tasks[2].HasID())
}
