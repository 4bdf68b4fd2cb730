// Package schedule derives Gantt timelines and earned-value figures from project snapshots.
// Every function here is pure: it reads the projects it is given and returns new values.
package schedule

import (
	"time"

	"sitemaster/internal/model"
)

// TurkishMonths are the short month names used on the chart axis.
var TurkishMonths = [12]string{"Oca", "Şub", "Mar", "Nis", "May", "Haz", "Tem", "Ağu", "Eyl", "Eki", "Kas", "Ara"}

// Month is one axis bucket. MonthIndex is zero-based (January = 0).
type Month struct {
	Label      string `json:"label"`
	Year       int    `json:"year"`
	MonthIndex int    `json:"month_index"`
}

// Range is the padded window a chart is drawn in.
type Range struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Months     []Month   `json:"months"`
	DurationMs int64     `json:"duration_ms"`
}

// At anchors a calendar date to midnight in the range's location.
func (r Range) At(d model.Date) time.Time {
	loc := r.Start.Location()
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

type Resolver struct {
	loc    *time.Location
	now    func() time.Time
	labels [12]string
}

type Option func(*Resolver)

func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithClock replaces time.Now. Only the empty-input fallback reads the clock.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func WithMonthLabels(labels [12]string) Option {
	return func(r *Resolver) { r.labels = labels }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		loc:    time.UTC,
		now:    time.Now,
		labels: TurkishMonths,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Location() *time.Location { return r.loc }

// Resolve pools every task start (falling back to the project start), every task due
// date and every project start/end, then pads the window by one month before the
// earliest date and one month after the latest.
func (r *Resolver) Resolve(projects []model.Project) Range {
	var minT, maxT time.Time
	found := false
	observe := func(d model.Date) {
		if d.IsZero() {
			return
		}
		t := r.anchor(d)
		if !found {
			minT, maxT, found = t, t, true
			return
		}
		if t.Before(minT) {
			minT = t
		}
		if t.After(maxT) {
			maxT = t
		}
	}

	for i := range projects {
		p := &projects[i]
		for j := range p.Tasks {
			task := &p.Tasks[j]
			observe(task.EffectiveStart(p.StartDate))
			observe(task.DueDate)
		}
		observe(p.StartDate)
		observe(p.EndDate)
	}

	if !found {
		return r.fallback()
	}

	start := time.Date(minT.Year(), minT.Month()-1, 1, 0, 0, 0, 0, r.loc)
	end := time.Date(maxT.Year(), maxT.Month()+2, 0, 0, 0, 0, 0, r.loc)
	return r.build(start, end)
}

// fallback is the window used when there is nothing to plot: previous, current and next month.
func (r *Resolver) fallback() Range {
	today := r.now().In(r.loc)
	start := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, r.loc)
	end := time.Date(today.Year(), today.Month()+2, 0, 0, 0, 0, 0, r.loc)
	return r.build(start, end)
}

func (r *Resolver) build(start, end time.Time) Range {
	var months []Month
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		months = append(months, Month{
			Label:      r.labels[cur.Month()-1],
			Year:       cur.Year(),
			MonthIndex: int(cur.Month()) - 1,
		})
	}

	duration := end.Sub(start).Milliseconds()
	if duration < 1 {
		duration = 1
	}

	return Range{
		Start:      start,
		End:        end,
		Months:     months,
		DurationMs: duration,
	}
}

func (r *Resolver) anchor(d model.Date) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, r.loc)
}
