package taskimport

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitemaster/internal/model"
)

func TestParseSkipsHeaderAndBadRows(t *testing.T) {
	input := strings.Join([]string{
		"title,start,end,weight",
		"Kazı,2024-06-01,2024-06-10,20",
		"Temel,2024-06-11,2024-06-30",
		",2024-06-01,2024-06-10,5",
		"Kolon,2024-07-01",
		"Perde,2024-13-01,2024-07-10,5",
		"Döşeme,2024-07-01,2024-07-20,abc",
		"",
		"Çatı,2024-08-10,2024-08-01,5",
	}, "\n")

	res, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, res.Rows, 3)
	assert.Equal(t, "Kazı", res.Rows[0].Title)
	assert.Equal(t, 2, res.Rows[0].Line)
	assert.Equal(t, 20.0, res.Rows[0].Weight)
	assert.Equal(t, model.MustDate("2024-06-10"), res.Rows[0].Due)
	assert.Equal(t, 0.0, res.Rows[1].Weight)
	assert.Equal(t, "Döşeme", res.Rows[2].Title)
	assert.Equal(t, 0.0, res.Rows[2].Weight)

	var lines []int
	for _, s := range res.Skipped {
		lines = append(lines, s.Line)
	}
	assert.Equal(t, []int{4, 5, 6, 9}, lines)
}

func TestParseStripsBOMAndAcceptsTemplate(t *testing.T) {
	res, err := Parse(bytes.NewReader(Template()))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Örnek Duvar İmalatı", res.Rows[0].Title)
	assert.Equal(t, 10.0, res.Rows[0].Weight)
	assert.Empty(t, res.Skipped)
}

func TestParseWeightFormats(t *testing.T) {
	assert.Equal(t, 12.5, parseWeight([]string{"a", "b", "c", "12,5"}))
	assert.Equal(t, 30.0, parseWeight([]string{"a", "b", "c", " 30% "}))
	assert.Equal(t, 100.0, parseWeight([]string{"a", "b", "c", "250"}))
	assert.Equal(t, 0.0, parseWeight([]string{"a", "b", "c", "-4"}))
	assert.Equal(t, 0.0, parseWeight([]string{"a", "b", "c"}))
	assert.Equal(t, 0.0, parseWeight([]string{"a", "b", "c", "NaN"}))
	assert.Equal(t, 0.0, parseWeight([]string{"a", "b", "c", "nan"}))
	assert.Equal(t, 100.0, parseWeight([]string{"a", "b", "c", "Inf"}))
}

func TestParseNaNWeightKeepsViewEncodable(t *testing.T) {
	res, err := Parse(strings.NewReader("h1,h2,h3,h4\nDuvar,2024-01-01,2024-02-01,NaN\n"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 0.0, res.Rows[0].Weight)

	tasks := res.Tasks("p1", 1, func() string { return "t1" })
	require.NoError(t, tasks[0].Validate())
}

func TestParseHeaderOnly(t *testing.T) {
	res, err := Parse(strings.NewReader("title,start,end\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Skipped)
}

func TestParseRejectsOversizedImport(t *testing.T) {
	var b strings.Builder
	b.WriteString("title,start,end\n")
	for i := 0; i <= MaxRows; i++ {
		fmt.Fprintf(&b, "t%d,2024-01-01,2024-01-02\n", i)
	}
	_, err := Parse(strings.NewReader(b.String()))
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestResultTasks(t *testing.T) {
	res := &Result{Rows: []Row{
		{Line: 2, Title: "A", Start: model.MustDate("2024-01-01"), Due: model.MustDate("2024-01-05"), Weight: 40},
		{Line: 3, Title: "B", Start: model.MustDate("2024-01-06"), Due: model.MustDate("2024-01-09")},
	}}
	n := 0
	tasks := res.Tasks("p1", 7, func() string { n++; return fmt.Sprintf("t%d", n) })

	require.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, "p1", task.ProjectID)
		assert.Equal(t, model.TaskToDo, task.Status)
		assert.Equal(t, model.PriorityMedium, task.Priority)
		require.NoError(t, task.Validate())
	}
	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, 7, tasks[0].Position)
	assert.Equal(t, 8, tasks[1].Position)
	assert.Equal(t, model.MustDate("2024-01-06"), *tasks[1].StartDate)
}

func TestTemplateLayout(t *testing.T) {
	tpl := Template()
	assert.True(t, bytes.HasPrefix(tpl, utf8BOM))
	assert.Equal(t,
		"İş Kalemi Adı,Başlangıç Tarihi (YYYY-MM-DD),Bitiş Tarihi (YYYY-MM-DD),Pursantaj (%)\nÖrnek Duvar İmalatı,2024-06-01,2024-06-15,10\n",
		string(tpl[len(utf8BOM):]),
	)
}
