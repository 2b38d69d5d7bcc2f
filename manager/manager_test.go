package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"student-manager-go/db"
	"student-manager-go/i18n"
	"student-manager-go/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeStore wraps a MemoryStore, records calls and can inject failures.
type fakeStore struct {
	*db.MemoryStore

	mu        sync.Mutex
	calls     []string
	listErr   error
	insertErr error
	updateErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemoryStore: db.NewMemoryStore()}
}

func (f *fakeStore) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeStore) List(ctx context.Context) ([]models.StudentRecord, error) {
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.MemoryStore.List(ctx)
}

func (f *fakeStore) Insert(ctx context.Context, d models.Draft) (models.StudentRecord, error) {
	f.record("insert")
	if f.insertErr != nil {
		return models.StudentRecord{}, f.insertErr
	}
	return f.MemoryStore.Insert(ctx, d)
}

func (f *fakeStore) Update(ctx context.Context, id int64, d models.Draft) (models.StudentRecord, error) {
	f.record("update")
	if f.updateErr != nil {
		return models.StudentRecord{}, f.updateErr
	}
	return f.MemoryStore.Update(ctx, id, d)
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	f.record("delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryStore.Delete(ctx, id)
}

func seed(t *testing.T, store *fakeStore, names ...string) []models.StudentRecord {
	t.Helper()
	var out []models.StudentRecord
	for _, n := range names {
		rec, err := store.MemoryStore.Insert(context.Background(), models.Draft{Name: n})
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func newManager(store db.DataStore) *StudentManager {
	return New(store, i18n.NewPrinter("es"), nil)
}

func yes(string) bool { return true }
func no(string) bool  { return false }

func TestLoadReplacesList(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "Ana", "Luis")
	m := newManager(store)

	st := m.Snapshot()
	assert.False(t, st.Loaded)
	assert.Empty(t, st.Students)

	require.NoError(t, m.Load(context.Background()))
	st = m.Snapshot()
	assert.True(t, st.Loaded)
	assert.False(t, st.Loading)
	require.Len(t, st.Students, 2)
	assert.Equal(t, int64(1), st.Students[0].ID)
	assert.Equal(t, int64(2), st.Students[1].ID)
}

func TestLoadEmptyStoreGivesEmptyList(t *testing.T) {
	m := newManager(newFakeStore())
	require.NoError(t, m.Load(context.Background()))
	st := m.Snapshot()
	assert.NotNil(t, st.Students)
	assert.Empty(t, st.Students)
}

func TestLoadFailureKeepsListAndShowsGenericError(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "Ana")
	m := newManager(store)
	require.NoError(t, m.Load(context.Background()))

	store.listErr = errors.New("connection refused")
	err := m.Load(context.Background())
	require.Error(t, err)

	st := m.Snapshot()
	assert.Equal(t, "Error al cargar estudiantes", st.Error)
	assert.NotContains(t, st.Error, "connection refused")
	assert.Len(t, st.Students, 1)
	assert.False(t, st.Loading)
}

func TestEnsureLoadedRunsOnce(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)
	ctx := context.Background()

	require.NoError(t, m.EnsureLoaded(ctx))
	require.NoError(t, m.EnsureLoaded(ctx))
	assert.Equal(t, []string{"list"}, store.Calls())
}

func TestEnsureLoadedDoesNotRetryFailedLoad(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("connection refused")
	m := newManager(store)
	ctx := context.Background()

	require.Error(t, m.EnsureLoaded(ctx))
	require.NoError(t, m.EnsureLoaded(ctx))
	require.NoError(t, m.EnsureLoaded(ctx))
	assert.Equal(t, []string{"list"}, store.Calls())
	assert.Equal(t, "Error al cargar estudiantes", m.Snapshot().Error)
	assert.False(t, m.Snapshot().Loaded)
}

func TestEnsureLoadedConcurrentFirstDisplay(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	store := &slowListStore{fakeStore: newFakeStore(), gate: gate, entered: entered}
	m := newManager(store)

	done := make(chan error, 1)
	go func() { done <- m.EnsureLoaded(context.Background()) }()
	<-entered

	// A second display while the first load is in flight sees the loading
	// state and issues no second List.
	require.NoError(t, m.EnsureLoaded(context.Background()))
	assert.True(t, m.Snapshot().Loading)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"list"}, store.Calls())
}

func TestSuccessfulLoadClearsLoadError(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "Ana")
	m := newManager(store)
	ctx := context.Background()

	store.listErr = errors.New("timeout")
	require.Error(t, m.Load(ctx))
	assert.Equal(t, "Error al cargar estudiantes", m.Snapshot().Error)

	store.listErr = nil
	require.NoError(t, m.Load(ctx))
	st := m.Snapshot()
	assert.Empty(t, st.Error)
	assert.Len(t, st.Students, 1)
}

func TestCreateAppendsAndResets(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	m.SetField(models.FieldName, "Ana")
	assert.Equal(t, Create, m.PendingSubmission().Kind)
	require.NoError(t, m.Submit(ctx))

	st := m.Snapshot()
	assert.Equal(t, []models.StudentRecord{{ID: 1, Name: "Ana"}}, st.Students)
	assert.Equal(t, models.Draft{}, st.Draft)
	assert.Nil(t, st.EditingID)
	assert.Empty(t, st.Error)
}

func TestCreateDoesNotResort(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "A", "B", "C")
	m := newManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	// Another session removes id 1; the local list keeps it and only gains
	// our own create at the end.
	require.NoError(t, store.MemoryStore.Delete(ctx, 1))
	m.SetField(models.FieldName, "D")
	require.NoError(t, m.Submit(ctx))

	ids := func() []int64 {
		var out []int64
		for _, s := range m.Snapshot().Students {
			out = append(out, s.ID)
		}
		return out
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, ids())

	require.NoError(t, m.Load(ctx))
	assert.Equal(t, []int64{2, 3, 4}, ids())
}

func TestCreateFailurePreservesDraft(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "Ana")
	m := newManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	store.insertErr = errors.New("duplicate key")
	m.SetField(models.FieldName, "Beto")
	m.SetField(models.FieldPhone, "555")
	require.Error(t, m.Submit(ctx))

	st := m.Snapshot()
	assert.Equal(t, "Error al crear estudiante: duplicate key", st.Error)
	assert.Equal(t, models.Draft{Name: "Beto", Phone: "555"}, st.Draft)
	assert.Len(t, st.Students, 1)

	store.insertErr = nil
	require.NoError(t, m.Submit(ctx))
	st = m.Snapshot()
	assert.Empty(t, st.Error)
	assert.Len(t, st.Students, 2)
}

func TestUpdateReplacesInPlace(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "a", "b", "c", "d")
	luis, err := store.MemoryStore.Insert(context.Background(), models.Draft{Name: "Luis", Address: "Calle 1", Note: "x"})
	require.NoError(t, err)
	require.Equal(t, int64(5), luis.ID)
	seed(t, store, "f")

	m := newManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	m.BeginEdit(luis)
	m.SetField(models.FieldPhone, "555-1234")

	sub := m.PendingSubmission()
	assert.Equal(t, Submission{
		Kind:  Update,
		ID:    5,
		Draft: models.Draft{Name: "Luis", Address: "Calle 1", Phone: "555-1234", Note: "x"},
	}, sub)

	require.NoError(t, m.Submit(ctx))
	st := m.Snapshot()
	require.Len(t, st.Students, 6)
	assert.Equal(t, models.StudentRecord{ID: 5, Name: "Luis", Address: "Calle 1", Phone: "555-1234", Note: "x"}, st.Students[4])
	assert.Nil(t, st.EditingID)
	assert.Equal(t, models.Draft{}, st.Draft)
}

func TestUpdateFailurePreservesDraftAndTarget(t *testing.T) {
	store := newFakeStore()
	recs := seed(t, store, "Ana")
	m := newManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	store.updateErr = errors.New("timeout")
	m.BeginEdit(recs[0])
	m.SetField(models.FieldName, "Anita")
	require.Error(t, m.Submit(ctx))

	st := m.Snapshot()
	assert.Equal(t, "Error al actualizar estudiante: timeout", st.Error)
	require.NotNil(t, st.EditingID)
	assert.Equal(t, int64(1), *st.EditingID)
	assert.Equal(t, "Anita", st.Draft.Name)
	assert.Equal(t, "Ana", st.Students[0].Name)
}

func TestUpdateMissingRowSurfacesError(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)
	ctx := context.Background()

	m.BeginEdit(models.StudentRecord{ID: 42, Name: "ghost"})
	err := m.Submit(ctx)
	require.ErrorIs(t, err, db.ErrNotFound)
	assert.Contains(t, m.Snapshot().Error, "Error al actualizar estudiante: ")
}

func TestDeleteDeclinedIssuesNoCall(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "Ana")
	m := newManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	store.insertErr = errors.New("boom")
	m.SetField(models.FieldName, "x")
	require.Error(t, m.Submit(ctx))
	before := m.Snapshot()

	require.NoError(t, m.Delete(ctx, 1, ConfirmFunc(no)))
	require.NoError(t, m.Delete(ctx, 1, nil))

	after := m.Snapshot()
	assert.Equal(t, before, after)
	assert.NotContains(t, store.Calls(), "delete")
}

func TestDeleteConfirmedRemovesRow(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "Ana", "Luis", "Eva")
	m := newManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	var prompt string
	require.NoError(t, m.Delete(ctx, 2, ConfirmFunc(func(p string) bool {
		prompt = p
		return true
	})))
	assert.Equal(t, "¿Estás seguro de eliminar este estudiante?", prompt)

	st := m.Snapshot()
	require.Len(t, st.Students, 2)
	assert.Equal(t, "Ana", st.Students[0].Name)
	assert.Equal(t, "Eva", st.Students[1].Name)
}

func TestDeleteFailureKeepsList(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "Ana")
	m := newManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	store.deleteErr = errors.New("permission denied")
	require.Error(t, m.Delete(ctx, 1, ConfirmFunc(yes)))
	st := m.Snapshot()
	assert.Equal(t, "Error al eliminar estudiante: permission denied", st.Error)
	assert.Len(t, st.Students, 1)

	store.deleteErr = nil
	require.NoError(t, m.Delete(ctx, 1, ConfirmFunc(yes)))
	st = m.Snapshot()
	assert.Empty(t, st.Error)
	assert.Empty(t, st.Students)
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "Ana")
	m := newManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.Delete(ctx, 99, ConfirmFunc(yes)))
	assert.Len(t, m.Snapshot().Students, 1)
}

func TestResetIsIdempotent(t *testing.T) {
	m := newManager(newFakeStore())
	m.BeginEdit(models.StudentRecord{ID: 3, Name: "x", Phone: "y"})

	m.Reset()
	once := m.Snapshot()
	m.Reset()
	twice := m.Snapshot()

	assert.Equal(t, once, twice)
	assert.Equal(t, models.Draft{}, twice.Draft)
	assert.Nil(t, twice.EditingID)
	assert.Equal(t, Create, m.PendingSubmission().Kind)
}

func TestSetFieldTouchesOnlyOneField(t *testing.T) {
	m := newManager(newFakeStore())
	m.BeginEdit(models.StudentRecord{ID: 7, Name: "n", Address: "a", Phone: "p", Note: "o"})
	m.SetField(models.FieldNote, "line 1\nline 2")

	st := m.Snapshot()
	assert.Equal(t, models.Draft{Name: "n", Address: "a", Phone: "p", Note: "line 1\nline 2"}, st.Draft)
	require.NotNil(t, st.EditingID)
	assert.Equal(t, int64(7), *st.EditingID)
}

func TestBeginEditByID(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "Ana", "Luis")
	m := newManager(store)
	require.NoError(t, m.Load(context.Background()))

	assert.False(t, m.BeginEditByID(9))
	assert.Nil(t, m.Snapshot().EditingID)

	assert.True(t, m.BeginEditByID(2))
	st := m.Snapshot()
	require.NotNil(t, st.EditingID)
	assert.Equal(t, int64(2), *st.EditingID)
	assert.Equal(t, "Luis", st.Draft.Name)
	assert.Len(t, st.Students, 2)
}

func TestSnapshotIsACopy(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "Ana")
	m := newManager(store)
	require.NoError(t, m.Load(context.Background()))

	st := m.Snapshot()
	st.Students[0].Name = "changed"
	assert.Equal(t, "Ana", m.Snapshot().Students[0].Name)
}

func TestFoldingMatchesStoreAfterEachOperation(t *testing.T) {
	store := newFakeStore()
	seed(t, store, "a", "b")
	m := newManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	check := func() {
		t.Helper()
		want, err := store.MemoryStore.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, m.Snapshot().Students)
	}

	m.SetField(models.FieldName, "c")
	require.NoError(t, m.Submit(ctx))
	check()

	require.True(t, m.BeginEditByID(1))
	m.SetField(models.FieldAddress, "somewhere")
	require.NoError(t, m.Submit(ctx))
	check()

	require.NoError(t, m.Delete(ctx, 2, ConfirmFunc(yes)))
	check()
}

// blockingStore holds Update calls until released, to exercise per-id ordering.
type blockingStore struct {
	*fakeStore
	gate    chan struct{}
	entered chan int64
}

func (b *blockingStore) Update(ctx context.Context, id int64, d models.Draft) (models.StudentRecord, error) {
	b.entered <- id
	<-b.gate
	return b.fakeStore.Update(ctx, id, d)
}

func TestSameIDMutationsAreSerialized(t *testing.T) {
	inner := newFakeStore()
	seed(t, inner, "Ana")
	store := &blockingStore{fakeStore: inner, gate: make(chan struct{}), entered: make(chan int64, 4)}
	m := newManager(store)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	m.BeginEditByID(1)
	m.SetField(models.FieldName, "first")
	firstDone := make(chan error, 1)
	go func() { firstDone <- m.Submit(ctx) }()
	assert.Equal(t, int64(1), <-store.entered)

	deleteDone := make(chan error, 1)
	go func() { deleteDone <- m.Delete(ctx, 1, ConfirmFunc(yes)) }()

	// The delete must wait behind the in-flight update.
	require.Eventually(t, func() bool { return m.locks.waiting(1) == 2 }, time.Second, time.Millisecond)
	assert.NotContains(t, inner.Calls(), "delete")

	close(store.gate)
	require.NoError(t, <-firstDone)
	require.NoError(t, <-deleteDone)

	assert.Equal(t, []string{"list", "update", "delete"}, inner.Calls())
	assert.Empty(t, m.Snapshot().Students)
	assert.Equal(t, 0, m.locks.waiting(1))
}

func TestCancelledWaitSurfacesError(t *testing.T) {
	inner := newFakeStore()
	seed(t, inner, "Ana")
	store := &blockingStore{fakeStore: inner, gate: make(chan struct{}), entered: make(chan int64, 4)}
	m := newManager(store)
	require.NoError(t, m.Load(context.Background()))

	m.BeginEditByID(1)
	done := make(chan error, 1)
	go func() { done <- m.Submit(context.Background()) }()
	<-store.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Delete(ctx, 1, ConfirmFunc(yes))
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, m.Snapshot().Error, "Error al eliminar estudiante: ")

	close(store.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 0, m.locks.waiting(1))
}

func TestLoadingFlagDuringLoad(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	store := &slowListStore{fakeStore: newFakeStore(), gate: gate, entered: entered}
	m := newManager(store)

	done := make(chan error, 1)
	go func() { done <- m.Load(context.Background()) }()
	<-entered
	assert.True(t, m.Snapshot().Loading)

	close(gate)
	require.NoError(t, <-done)
	assert.False(t, m.Snapshot().Loading)
}

type slowListStore struct {
	*fakeStore
	gate    chan struct{}
	entered chan struct{}
}

func (s *slowListStore) List(ctx context.Context) ([]models.StudentRecord, error) {
	close(s.entered)
	<-s.gate
	return s.fakeStore.List(ctx)
}
