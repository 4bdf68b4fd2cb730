package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitemaster/internal/model"
)

func TestParseViewMode(t *testing.T) {
	m, err := ParseViewMode("")
	require.NoError(t, err)
	assert.Equal(t, ViewSingle, m)

	m, err = ParseViewMode("all")
	require.NoError(t, err)
	assert.Equal(t, ViewAll, m)

	_, err = ParseViewMode("portfolio")
	assert.ErrorIs(t, err, model.ErrInvalidEnum)
}

func TestSelect(t *testing.T) {
	projects := sampleProjects()

	assert.Len(t, Select(projects, ViewAll, ""), 2)

	single := Select(projects, ViewSingle, "b")
	require.Len(t, single, 1)
	assert.Equal(t, "b", single[0].ID)

	missing := Select(projects, ViewSingle, "zzz")
	assert.NotNil(t, missing)
	assert.Empty(t, missing)
}

func TestBuildView(t *testing.T) {
	projects := sampleProjects()
	resolver := NewResolver()

	v := BuildView(projects, ViewAll, resolver)

	assert.Equal(t, ViewAll, v.Mode)
	assert.Equal(t, Summary{ProjectCount: 2, TaskCount: 3}, v.Summary)
	assert.Equal(t, resolver.Resolve(projects), v.Range)
	assert.Equal(t, Aggregate(projects), v.Financials)
	require.Len(t, v.Rows, 2)

	a := v.Rows[0]
	assert.Equal(t, "a", a.ID)
	// 20 done + 50 in progress at half, out of 100.
	assert.InDelta(t, 45.0, a.EarnedProgress, 1e-9)
	require.Len(t, a.Tasks, 3)

	karkas := a.Tasks[1]
	assert.Equal(t, date("2023-09-01"), karkas.Start, "missing start falls back to project start")
	assert.Equal(t, 50.0, karkas.Completion)
	assert.Equal(t, DurationDays(date("2023-09-01"), date("2024-05-01")), karkas.DurationDays)

	for _, row := range v.Rows {
		assert.GreaterOrEqual(t, row.Offset, 0.0)
		assert.LessOrEqual(t, row.Offset, 100.0)
		assert.GreaterOrEqual(t, row.Width, MinWidth)
		assert.LessOrEqual(t, row.Offset+row.Width, 100.0+1e-9)
	}

	b := v.Rows[1]
	assert.Empty(t, b.Tasks)
	assert.Equal(t, 0.0, b.EarnedProgress)
}

func TestBuildView_Empty(t *testing.T) {
	v := BuildView(Select(sampleProjects(), ViewSingle, "none"), ViewSingle, NewResolver())

	assert.Empty(t, v.Rows)
	assert.Len(t, v.Range.Months, 3)
	assert.Equal(t, 0.0, v.Financials.GlobalProgress)
}
