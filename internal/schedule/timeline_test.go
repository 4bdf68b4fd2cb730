package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitemaster/internal/model"
)

func date(s string) model.Date { return model.MustDate(s) }

func datePtr(s string) *model.Date {
	d := model.MustDate(s)
	return &d
}

func utc(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func task(status model.TaskStatus, weight float64) model.Task {
	return model.Task{
		ID:       "t",
		Title:    "task",
		Status:   status,
		Priority: model.PriorityMedium,
		DueDate:  date("2024-06-15"),
		Weight:   weight,
	}
}

// =============================================================================
// Range resolution
// =============================================================================

func TestResolve_ProjectWithoutTasks(t *testing.T) {
	projects := []model.Project{{
		ID:        "2",
		Name:      "Sahil Park Evleri - Etap 2",
		StartDate: date("2024-03-10"),
		EndDate:   date("2025-06-30"),
	}}

	rng := NewResolver().Resolve(projects)

	assert.Equal(t, utc(2024, time.February, 1), rng.Start)
	assert.Equal(t, utc(2025, time.July, 31), rng.End)
	require.Len(t, rng.Months, 18)
	assert.Equal(t, Month{Label: "Şub", Year: 2024, MonthIndex: 1}, rng.Months[0])
	assert.Equal(t, Month{Label: "Tem", Year: 2025, MonthIndex: 6}, rng.Months[17])
}

func TestResolve_TasksWidenProjectWindow(t *testing.T) {
	projects := []model.Project{{
		StartDate: date("2024-06-01"),
		EndDate:   date("2024-06-30"),
		Tasks: []model.Task{{
			Title:     "Hafriyat",
			Status:    model.TaskToDo,
			Priority:  model.PriorityHigh,
			StartDate: datePtr("2024-05-20"),
			DueDate:   date("2024-08-10"),
		}},
	}}

	rng := NewResolver().Resolve(projects)

	assert.Equal(t, utc(2024, time.April, 1), rng.Start)
	assert.Equal(t, utc(2024, time.September, 30), rng.End)
	assert.Len(t, rng.Months, 6)
}

func TestResolve_TaskWithoutStartUsesProjectStart(t *testing.T) {
	projects := []model.Project{{
		StartDate: date("2024-06-01"),
		EndDate:   date("2024-06-30"),
		Tasks:     []model.Task{task(model.TaskToDo, 10)},
	}}

	rng := NewResolver(WithClock(func() time.Time { return utc(2030, time.January, 1) })).Resolve(projects)

	assert.Equal(t, utc(2024, time.May, 1), rng.Start)
	assert.Equal(t, utc(2024, time.July, 31), rng.End)
}

func TestResolve_CrossesYearBoundary(t *testing.T) {
	projects := []model.Project{{
		StartDate: date("2024-01-15"),
		EndDate:   date("2024-12-05"),
	}}

	rng := NewResolver().Resolve(projects)

	assert.Equal(t, utc(2023, time.December, 1), rng.Start)
	assert.Equal(t, utc(2025, time.January, 31), rng.End)
	assert.Equal(t, Month{Label: "Ara", Year: 2023, MonthIndex: 11}, rng.Months[0])
	assert.Equal(t, Month{Label: "Oca", Year: 2025, MonthIndex: 0}, rng.Months[len(rng.Months)-1])
}

func TestResolve_EmptyInputFallsBackAroundToday(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, time.June, 15, 14, 30, 0, 0, time.UTC) }

	rng := NewResolver(WithClock(clock)).Resolve(nil)

	assert.Equal(t, utc(2024, time.May, 1), rng.Start)
	assert.Equal(t, utc(2024, time.July, 31), rng.End)
	assert.Equal(t, []Month{
		{Label: "May", Year: 2024, MonthIndex: 4},
		{Label: "Haz", Year: 2024, MonthIndex: 5},
		{Label: "Tem", Year: 2024, MonthIndex: 6},
	}, rng.Months)
	assert.Equal(t, int64(91*24*time.Hour/time.Millisecond), rng.DurationMs)
}

func TestResolve_FallbackInJanuary(t *testing.T) {
	clock := func() time.Time { return utc(2025, time.January, 3) }

	rng := NewResolver(WithClock(clock)).Resolve([]model.Project{})

	assert.Equal(t, utc(2024, time.December, 1), rng.Start)
	assert.Equal(t, utc(2025, time.February, 28), rng.End)
	assert.Len(t, rng.Months, 3)
}

func TestResolve_UsesConfiguredLocation(t *testing.T) {
	trt := time.FixedZone("TRT", 3*60*60)
	projects := []model.Project{{StartDate: date("2024-03-01"), EndDate: date("2024-03-31")}}

	rng := NewResolver(WithLocation(trt)).Resolve(projects)

	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, trt), rng.Start)
	assert.Equal(t, trt, rng.Start.Location())
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, trt), rng.At(date("2024-03-01")))
}

func TestResolve_CustomMonthLabels(t *testing.T) {
	en := [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	projects := []model.Project{{StartDate: date("2024-03-01"), EndDate: date("2024-03-31")}}

	rng := NewResolver(WithMonthLabels(en)).Resolve(projects)

	assert.Equal(t, "Feb", rng.Months[0].Label)
	assert.Equal(t, "Apr", rng.Months[2].Label)
}

// =============================================================================
// Properties
// =============================================================================

func sampleProjects() []model.Project {
	return []model.Project{
		{
			ID:        "a",
			StartDate: date("2023-09-01"),
			EndDate:   date("2024-12-15"),
			Budget:    52000000,
			Tasks: []model.Task{
				{Title: "Temel", Status: model.TaskDone, Priority: model.PriorityHigh, StartDate: datePtr("2023-08-20"), DueDate: date("2023-11-30"), Weight: 20},
				{Title: "Karkas", Status: model.TaskInProgress, Priority: model.PriorityCritical, DueDate: date("2024-05-01"), Weight: 50},
				{Title: "İnce işler", Status: model.TaskReview, Priority: model.PriorityMedium, StartDate: datePtr("2024-05-01"), DueDate: date("2025-02-01"), Weight: 30},
			},
		},
		{
			ID:        "b",
			StartDate: date("2024-03-10"),
			EndDate:   date("2025-06-30"),
			Budget:    28000000,
		},
	}
}

func TestResolve_CoversEveryDate(t *testing.T) {
	projects := sampleProjects()
	rng := NewResolver().Resolve(projects)

	for _, p := range projects {
		assert.False(t, rng.At(p.StartDate).Before(rng.Start), p.ID)
		assert.False(t, rng.At(p.EndDate).After(rng.End), p.ID)
		for _, task := range p.Tasks {
			assert.False(t, rng.At(task.EffectiveStart(p.StartDate)).Before(rng.Start), task.Title)
			assert.False(t, rng.At(task.DueDate).After(rng.End), task.Title)
		}
	}
}

func TestResolve_MonthsAreConsecutive(t *testing.T) {
	rng := NewResolver().Resolve(sampleProjects())

	require.NotEmpty(t, rng.Months)
	assert.Greater(t, rng.DurationMs, int64(0))
	for i := 1; i < len(rng.Months); i++ {
		prev, cur := rng.Months[i-1], rng.Months[i]
		prevSerial := prev.Year*12 + prev.MonthIndex
		curSerial := cur.Year*12 + cur.MonthIndex
		assert.Equal(t, prevSerial+1, curSerial)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	projects := sampleProjects()
	r := NewResolver()

	assert.Equal(t, r.Resolve(projects), r.Resolve(projects))
	assert.Equal(t, Aggregate(projects), Aggregate(projects))
}
