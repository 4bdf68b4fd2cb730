package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskStatus(t *testing.T) {
	for _, raw := range []string{"To Do", "In Progress", "Review", "Done"} {
		s, err := ParseTaskStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, string(s))
	}

	_, err := ParseTaskStatus("Blocked")
	assert.True(t, errors.Is(err, ErrInvalidEnum))
}

func TestTaskStatus_UnmarshalRejectsUnknown(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"title":"x","status":"done"}`), &task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidEnum))
}

func TestProjectStatus_Unmarshal(t *testing.T) {
	var p Project
	require.NoError(t, json.Unmarshal([]byte(`{"status":"On Hold"}`), &p))
	assert.Equal(t, ProjectOnHold, p.Status)

	err := json.Unmarshal([]byte(`{"status":"Cancelled"}`), &p)
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", d.String())

	d, err = ParseDate("2024-06-01T23:30:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", d.String())

	for _, bad := range []string{"", "01/06/2024", "2024-13-01", "yesterday"} {
		_, err := ParseDate(bad)
		assert.True(t, errors.Is(err, ErrInvalidDate), bad)
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"due_date":"2024-06-15","start_date":null}`), &task))
	assert.Equal(t, "2024-06-15", task.DueDate.String())
	assert.Nil(t, task.StartDate)

	out, err := json.Marshal(task.DueDate)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-15"`, string(out))

	err = json.Unmarshal([]byte(`{"due_date":"15.06.2024"}`), &task)
	assert.True(t, errors.Is(err, ErrInvalidDate))
}

func TestTask_EffectiveStart(t *testing.T) {
	projectStart := MustDate("2024-01-01")
	task := Task{}
	assert.Equal(t, projectStart, task.EffectiveStart(projectStart))

	own := MustDate("2024-02-10")
	task.StartDate = &own
	assert.Equal(t, own, task.EffectiveStart(projectStart))
}

func TestProject_Validate(t *testing.T) {
	p := Project{
		Name:      "Vadi İstanbul Rezidans",
		Status:    ProjectInProgress,
		Progress:  65,
		Budget:    100,
		Spent:     250,
		StartDate: MustDate("2023-09-01"),
		EndDate:   MustDate("2024-12-15"),
	}
	require.NoError(t, p.Validate(), "overspend is allowed")

	p.Progress = 101
	assert.ErrorIs(t, p.Validate(), ErrInvalidProgress)

	p.Progress = 10
	p.Budget = -1
	assert.ErrorIs(t, p.Validate(), ErrInvalidBudget)

	p.Budget = 100
	p.EndDate = MustDate("2023-01-01")
	assert.ErrorIs(t, p.Validate(), ErrInvalidRange)
}

func TestTask_Validate(t *testing.T) {
	task := Task{
		Title:    "Kaba inşaat",
		Status:   TaskToDo,
		Priority: PriorityMedium,
		DueDate:  MustDate("2024-06-15"),
		Weight:   30,
	}
	require.NoError(t, task.Validate())

	task.Weight = 120
	assert.ErrorIs(t, task.Validate(), ErrInvalidWeight)

	task.Weight = math.NaN()
	assert.ErrorIs(t, task.Validate(), ErrInvalidWeight)

	task.Weight = 0
	start := MustDate("2024-07-01")
	task.StartDate = &start
	assert.ErrorIs(t, task.Validate(), ErrInvalidRange)
}

func TestTaskCount(t *testing.T) {
	projects := []Project{{Tasks: make([]Task, 2)}, {}, {Tasks: make([]Task, 3)}}
	assert.Equal(t, 5, TaskCount(projects))
}
