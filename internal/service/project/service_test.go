package project

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mqcontracts "sitemaster/contracts/mq"
	"sitemaster/internal/model"
	"sitemaster/internal/repository"
)

type fakeTx struct{ calls int }

func (f *fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeProjects struct{ items map[string]*model.Project }

func (f *fakeProjects) List(ctx context.Context) ([]model.Project, error) {
	out := []model.Project{}
	for _, p := range f.items {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProjects) Get(ctx context.Context, id string) (*model.Project, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", repository.ErrNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) Insert(ctx context.Context, p *model.Project) error {
	cp := *p
	f.items[p.ID] = &cp
	return nil
}

func (f *fakeProjects) Update(ctx context.Context, p *model.Project) error {
	if _, ok := f.items[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	f.items[p.ID] = &cp
	return nil
}

func (f *fakeProjects) Delete(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeTasks struct{ items []model.Task }

func (f *fakeTasks) ListByProjects(ctx context.Context, ids []string) (map[string][]model.Task, error) {
	out := map[string][]model.Task{}
	for _, t := range f.items {
		out[t.ProjectID] = append(out[t.ProjectID], t)
	}
	return out, nil
}

func (f *fakeTasks) find(projectID, taskID string) int {
	for i, t := range f.items {
		if t.ProjectID == projectID && t.ID == taskID {
			return i
		}
	}
	return -1
}

func (f *fakeTasks) Get(ctx context.Context, projectID, taskID string) (*model.Task, error) {
	i := f.find(projectID, taskID)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	cp := f.items[i]
	return &cp, nil
}

func (f *fakeTasks) NextPosition(ctx context.Context, projectID string) (int, error) {
	n := 0
	for _, t := range f.items {
		if t.ProjectID == projectID && t.Position >= n {
			n = t.Position + 1
		}
	}
	return n, nil
}

func (f *fakeTasks) Insert(ctx context.Context, t *model.Task) error {
	f.items = append(f.items, *t)
	return nil
}

func (f *fakeTasks) InsertMany(ctx context.Context, tasks []model.Task) (int64, error) {
	f.items = append(f.items, tasks...)
	return int64(len(tasks)), nil
}

func (f *fakeTasks) Update(ctx context.Context, t *model.Task) error {
	i := f.find(t.ProjectID, t.ID)
	if i < 0 {
		return repository.ErrNotFound
	}
	f.items[i] = *t
	return nil
}

func (f *fakeTasks) Delete(ctx context.Context, projectID, taskID string) error {
	i := f.find(projectID, taskID)
	if i < 0 {
		return repository.ErrNotFound
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	return nil
}

type fakeDocuments struct{ items []model.Document }

func (f *fakeDocuments) ListByProjects(ctx context.Context, ids []string) (map[string][]model.Document, error) {
	out := map[string][]model.Document{}
	for _, d := range f.items {
		out[d.ProjectID] = append(out[d.ProjectID], d)
	}
	return out, nil
}

func (f *fakeDocuments) Insert(ctx context.Context, d *model.Document) error {
	f.items = append(f.items, *d)
	return nil
}

func (f *fakeDocuments) Delete(ctx context.Context, projectID, docID string) error {
	for i, d := range f.items {
		if d.ProjectID == projectID && d.ID == docID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeHistory struct {
	items   []model.TaskHistory
	batches int
}

func (f *fakeHistory) Insert(ctx context.Context, h *model.TaskHistory) error {
	h.ID = int64(len(f.items) + 1)
	f.items = append(f.items, *h)
	return nil
}

func (f *fakeHistory) InsertMany(ctx context.Context, entries []model.TaskHistory) (int64, error) {
	f.batches++
	for i := range entries {
		if err := f.Insert(ctx, &entries[i]); err != nil {
			return 0, err
		}
	}
	return int64(len(entries)), nil
}

func (f *fakeHistory) ListByTask(ctx context.Context, taskID string) ([]model.TaskHistory, error) {
	out := []model.TaskHistory{}
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].TaskID == taskID {
			out = append(out, f.items[i])
		}
	}
	return out, nil
}

type queuedEvent struct {
	aggregateType string
	aggregateID   string
	routingKey    string
	payload       any
}

type fakeEvents struct {
	items []queuedEvent
	err   error
}

func (f *fakeEvents) Enqueue(ctx context.Context, aggregateType, aggregateID, routingKey string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, queuedEvent{aggregateType, aggregateID, routingKey, payload})
	return nil
}

type fakeCache struct{ invalidations int }

func (f *fakeCache) Invalidate(ctx context.Context) { f.invalidations++ }

type fixture struct {
	svc       *Service
	projects  *fakeProjects
	tasks     *fakeTasks
	documents *fakeDocuments
	history   *fakeHistory
	events    *fakeEvents
	cache     *fakeCache
}

var actor = model.Actor{UserID: "u-1", Name: "Ayşe Yılmaz", Role: "site_chief"}

func newFixture() *fixture {
	f := &fixture{
		projects:  &fakeProjects{items: map[string]*model.Project{}},
		tasks:     &fakeTasks{},
		documents: &fakeDocuments{},
		history:   &fakeHistory{},
		events:    &fakeEvents{},
		cache:     &fakeCache{},
	}
	seq := 0
	f.svc = NewService(Deps{
		Tx:        &fakeTx{},
		Projects:  f.projects,
		Tasks:     f.tasks,
		Documents: f.documents,
		History:   f.history,
		Events:    f.events,
		Cache:     f.cache,
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
		Now: func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) },
	})
	f.projects.items["p1"] = &model.Project{
		ID:        "p1",
		Name:      "Vadi İstanbul Rezidans",
		Status:    model.ProjectInProgress,
		Budget:    1000,
		StartDate: model.MustDate("2024-01-01"),
		EndDate:   model.MustDate("2024-12-31"),
	}
	return f
}

func TestCreateProject(t *testing.T) {
	f := newFixture()

	p, err := f.svc.CreateProject(context.Background(), actor, model.Project{
		Name:      "Ataşehir Ofis",
		Status:    model.ProjectPlanning,
		StartDate: model.MustDate("2024-03-01"),
		EndDate:   model.MustDate("2025-03-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", p.ID)
	assert.NotNil(t, p.Tasks)
	assert.NotNil(t, p.Documents)
	assert.Contains(t, f.projects.items, "id-1")

	require.Len(t, f.events.items, 1)
	ev := f.events.items[0]
	assert.Equal(t, mqcontracts.RoutingProjectChanged, ev.routingKey)
	payload := ev.payload.(mqcontracts.ProjectChangedPayload)
	assert.Equal(t, mqcontracts.ActionCreated, payload.Action)
	assert.Equal(t, "u-1", payload.Actor)
	assert.Equal(t, 1, f.cache.invalidations)
}

func TestCreateProject_InvalidIsRejectedBeforeStore(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateProject(context.Background(), actor, model.Project{
		Name:      "Ters tarih",
		Status:    model.ProjectPlanning,
		StartDate: model.MustDate("2024-03-01"),
		EndDate:   model.MustDate("2024-01-01"),
	})
	assert.ErrorIs(t, err, model.ErrInvalidRange)
	assert.Len(t, f.projects.items, 1)
	assert.Empty(t, f.events.items)
	assert.Zero(t, f.cache.invalidations)
}

func TestUpdateProject_AppliesPatch(t *testing.T) {
	f := newFixture()
	spent := 1500.0
	name := "Vadi İstanbul Faz 2"

	p, err := f.svc.UpdateProject(context.Background(), actor, "p1", ProjectPatch{Name: &name, Spent: &spent})
	require.NoError(t, err)
	assert.Equal(t, name, p.Name)
	assert.Equal(t, 1500.0, p.Spent)
	assert.Equal(t, 1000.0, p.Budget)
	assert.Equal(t, 1, f.cache.invalidations)
}

func TestUpdateProject_RejectsNegativeBudget(t *testing.T) {
	f := newFixture()
	budget := -250.0

	_, err := f.svc.UpdateProject(context.Background(), actor, "p1", ProjectPatch{Budget: &budget})
	assert.ErrorIs(t, err, model.ErrInvalidBudget)
	assert.Equal(t, 0, f.cache.invalidations)
}

func TestUpdateProject_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.UpdateProject(context.Background(), actor, "missing", ProjectPatch{})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestDeleteProject(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.svc.DeleteProject(context.Background(), actor, "p1"))
	assert.Empty(t, f.projects.items)

	err := f.svc.DeleteProject(context.Background(), actor, "p1")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestGetProject_AttachesEmptyChildren(t *testing.T) {
	f := newFixture()
	p, err := f.svc.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, p.Tasks)
	assert.Empty(t, p.Tasks)
	assert.NotNil(t, p.Documents)
}

func TestAddTask_DefaultsAndHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.AddTask(ctx, actor, "p1", model.Task{Title: "Temel kazısı", DueDate: model.MustDate("2024-02-01"), Weight: 20})
	require.NoError(t, err)
	second, err := f.svc.AddTask(ctx, actor, "p1", model.Task{Title: "Kaba inşaat", DueDate: model.MustDate("2024-05-01")})
	require.NoError(t, err)

	assert.Equal(t, model.TaskToDo, first.Status)
	assert.Equal(t, model.PriorityMedium, first.Priority)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)

	require.Len(t, f.history.items, 2)
	assert.Equal(t, HistoryCreated, f.history.items[0].Action)
	assert.Equal(t, "Ayşe Yılmaz", f.history.items[0].Actor)

	require.Len(t, f.events.items, 2)
	assert.Equal(t, mqcontracts.RoutingTaskChanged, f.events.items[0].routingKey)
	assert.Equal(t, "p1", f.events.items[0].aggregateID)
}

func TestAddTask_UnknownProject(t *testing.T) {
	f := newFixture()
	_, err := f.svc.AddTask(context.Background(), actor, "nope", model.Task{Title: "x", DueDate: model.MustDate("2024-02-01")})
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.Empty(t, f.tasks.items)
}

func TestAddTask_EventFailureRollsBackCall(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New("outbox down")

	_, err := f.svc.AddTask(context.Background(), actor, "p1", model.Task{Title: "x", DueDate: model.MustDate("2024-02-01")})
	require.Error(t, err)
	assert.Zero(t, f.cache.invalidations)
}

func TestUpdateTask_StatusChange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	task, err := f.svc.AddTask(ctx, actor, "p1", model.Task{Title: "Çatı", DueDate: model.MustDate("2024-08-01")})
	require.NoError(t, err)

	done := model.TaskDone
	updated, err := f.svc.UpdateTask(ctx, actor, "p1", task.ID, TaskPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, model.TaskDone, updated.Status)

	last := f.history.items[len(f.history.items)-1]
	assert.Equal(t, "status: To Do -> Done", last.Action)

	payload := f.events.items[len(f.events.items)-1].payload.(mqcontracts.TaskChangedPayload)
	assert.Equal(t, mqcontracts.ActionStatus, payload.Action)
	assert.Equal(t, []string{task.ID}, payload.TaskIDs)
}

func TestUpdateTask_FieldsAndClearStart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	start := model.MustDate("2024-03-01")
	task, err := f.svc.AddTask(ctx, actor, "p1", model.Task{Title: "Cephe", StartDate: &start, DueDate: model.MustDate("2024-08-01")})
	require.NoError(t, err)

	weight := 40.0
	updated, err := f.svc.UpdateTask(ctx, actor, "p1", task.ID, TaskPatch{Weight: &weight, ClearStartDate: true})
	require.NoError(t, err)
	assert.Nil(t, updated.StartDate)
	assert.Equal(t, 40.0, updated.Weight)

	last := f.history.items[len(f.history.items)-1]
	assert.Equal(t, "updated: start_date, weight", last.Action)

	payload := f.events.items[len(f.events.items)-1].payload.(mqcontracts.TaskChangedPayload)
	assert.Equal(t, mqcontracts.ActionUpdated, payload.Action)
}

func TestUpdateTask_InvalidWeight(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	task, err := f.svc.AddTask(ctx, actor, "p1", model.Task{Title: "Cephe", DueDate: model.MustDate("2024-08-01")})
	require.NoError(t, err)

	weight := 140.0
	_, err = f.svc.UpdateTask(ctx, actor, "p1", task.ID, TaskPatch{Weight: &weight})
	assert.ErrorIs(t, err, model.ErrInvalidWeight)
	assert.Equal(t, 0.0, f.tasks.items[0].Weight)
}

func TestUpdateTask_NotFound(t *testing.T) {
	f := newFixture()
	done := model.TaskDone
	_, err := f.svc.UpdateTask(context.Background(), actor, "p1", "missing", TaskPatch{Status: &done})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDeleteTaskAndHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	task, err := f.svc.AddTask(ctx, actor, "p1", model.Task{Title: "Peyzaj", DueDate: model.MustDate("2024-11-01")})
	require.NoError(t, err)

	entries, err := f.svc.TaskHistory(ctx, "p1", task.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, f.svc.DeleteTask(ctx, actor, "p1", task.ID))
	assert.Empty(t, f.tasks.items)

	_, err = f.svc.TaskHistory(ctx, "p1", task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.ErrorIs(t, f.svc.DeleteTask(ctx, actor, "p1", task.ID), ErrTaskNotFound)
}

func TestDocuments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc, err := f.svc.AddDocument(ctx, actor, "p1", model.Document{Name: "Statik proje", Type: model.DocumentPDF, URL: "https://files.example/statik.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "p1", doc.ProjectID)
	assert.Empty(t, f.events.items)

	_, err = f.svc.AddDocument(ctx, actor, "p1", model.Document{Name: "x", Type: "ZIP", URL: "u"})
	assert.ErrorIs(t, err, model.ErrInvalidEnum)

	require.NoError(t, f.svc.DeleteDocument(ctx, actor, "p1", doc.ID))
	assert.ErrorIs(t, f.svc.DeleteDocument(ctx, actor, "p1", doc.ID), ErrDocumentNotFound)
}

func TestImportTasks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.AddTask(ctx, actor, "p1", model.Task{Title: "Mevcut", DueDate: model.MustDate("2024-02-01")})
	require.NoError(t, err)

	csv := strings.Join([]string{
		"İş Adı,Başlangıç,Bitiş,Ağırlık",
		"Temel,2024-01-10,2024-02-10,25",
		"Eksik,2024-01-10",
		"Kaba inşaat,2024-02-11,2024-06-30,40%",
	}, "\n")

	res, err := f.svc.ImportTasks(ctx, actor, "p1", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 3, res.Skipped[0].Line)

	require.Len(t, f.tasks.items, 3)
	assert.Equal(t, 1, f.tasks.items[1].Position)
	assert.Equal(t, 2, f.tasks.items[2].Position)
	assert.Equal(t, 40.0, f.tasks.items[2].Weight)

	payload := f.events.items[len(f.events.items)-1].payload.(mqcontracts.TaskChangedPayload)
	assert.Equal(t, mqcontracts.ActionImported, payload.Action)
	assert.Equal(t, res.TaskIDs, payload.TaskIDs)

	imported := 0
	for _, h := range f.history.items {
		if h.Action == HistoryImported {
			imported++
		}
	}
	assert.Equal(t, 2, imported)
	assert.Equal(t, 1, f.history.batches, "import history is written in one batch")
}

func TestImportTasks_NothingValid(t *testing.T) {
	f := newFixture()
	res, err := f.svc.ImportTasks(context.Background(), actor, "p1", strings.NewReader("a,b,c\n"))
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.NotNil(t, res.TaskIDs)
	assert.Empty(t, f.events.items)
	assert.Zero(t, f.cache.invalidations)
}

func TestImportTasks_UnknownProject(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ImportTasks(context.Background(), actor, "nope", strings.NewReader("a,b,c\nx,2024-01-01,2024-02-01\n"))
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestTaskPatch_StatusOnly(t *testing.T) {
	done := model.TaskDone
	title := "x"
	assert.True(t, TaskPatch{Status: &done}.StatusOnly())
	assert.False(t, TaskPatch{Status: &done, Title: &title}.StatusOnly())
	assert.False(t, TaskPatch{Title: &title}.StatusOnly())
	assert.True(t, TaskPatch{}.Empty())
}
