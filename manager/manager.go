// Package manager holds the per-session state of the student page: the list
// mirrored from the data store, the form draft, the loading flag and the
// visible error message. Every transition of that state goes through a
// StudentManager method.
//
// Store calls run outside the state lock, so several requests of one session
// may be in flight at once. Updates and deletes of the same id are applied in
// the order they were issued; creates are never serialized.
package manager

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/message"
	"student-manager-go/db"
	"student-manager-go/i18n"
	"student-manager-go/models"
)

// Confirmer answers the yes/no prompt shown before a delete.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// State is a point-in-time copy of everything the page renders.
type State struct {
	Students  []models.StudentRecord
	Draft     models.Draft
	EditingID *int64
	Loading   bool
	Loaded    bool
	Error     string
}

// StudentManager is the state container of one page session.
type StudentManager struct {
	store   db.DataStore
	printer *message.Printer
	logger  *zap.Logger
	locks   *keyLock

	mu        sync.Mutex
	students  listState
	form      formState
	loading   int
	loaded    bool
	attempted bool
	errMsg    string
}

// New returns a manager with an empty list that has not been loaded yet.
func New(store db.DataStore, printer *message.Printer, logger *zap.Logger) *StudentManager {
	if printer == nil {
		printer = message.NewPrinter(i18n.Default)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentManager{
		store:   store,
		printer: printer,
		logger:  logger,
		locks:   newKeyLock(),
	}
}

// Snapshot returns a copy of the current state.
func (m *StudentManager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	students := make([]models.StudentRecord, len(m.students))
	copy(students, m.students)
	st := State{
		Students: students,
		Draft:    m.form.draft,
		Loading:  m.loading > 0,
		Loaded:   m.loaded,
		Error:    m.errMsg,
	}
	if m.form.editingID != nil {
		id := *m.form.editingID
		st.EditingID = &id
	}
	return st
}

// Printer returns the printer used for user-facing messages.
func (m *StudentManager) Printer() *message.Printer { return m.printer }

// Load fetches every student ordered by id and replaces the list. On failure
// the list is kept, the generic load error is shown and the cause is only
// logged. The loading flag is cleared in both cases.
func (m *StudentManager) Load(ctx context.Context) error {
	m.mu.Lock()
	m.loading++
	m.mu.Unlock()

	students, err := m.store.List(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading--
	if err != nil {
		m.logger.Error("Error fetching students", zap.Error(err))
		m.errMsg = m.printer.Sprintf(i18n.MsgLoadFailed)
		return err
	}
	if students == nil {
		students = []models.StudentRecord{}
	}
	m.students = listState(students)
	m.loaded = true
	m.errMsg = ""
	return nil
}

// EnsureLoaded runs Load once per session, on first display. A failed first
// load is not retried here; Load must be called explicitly for that.
func (m *StudentManager) EnsureLoaded(ctx context.Context) error {
	m.mu.Lock()
	first := !m.attempted
	m.attempted = true
	m.mu.Unlock()
	if !first {
		return nil
	}
	return m.Load(ctx)
}

// SetField overwrites one draft field.
func (m *StudentManager) SetField(field models.Field, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form.setField(field, value)
}

// BeginEdit copies rec into the draft and makes rec.ID the editing target.
func (m *StudentManager) BeginEdit(rec models.StudentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form.beginEdit(rec)
}

// BeginEditByID starts editing the listed record with the given id. It
// reports false, leaving the form untouched, when no such row is listed.
func (m *StudentManager) BeginEditByID(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.students.find(id)
	if ok {
		m.form.beginEdit(rec)
	}
	return ok
}

// Reset empties the draft and clears the editing target.
func (m *StudentManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form.reset()
}

// PendingSubmission reports the call a submit would issue right now.
func (m *StudentManager) PendingSubmission() Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form.submission()
}

// Submit creates or updates a student from the current draft. On success the
// result is folded into the list, the form is reset and the error cleared. On
// failure only the error message changes.
func (m *StudentManager) Submit(ctx context.Context) error {
	sub := m.PendingSubmission()
	switch sub.Kind {
	case Update:
		return m.submitUpdate(ctx, sub)
	default:
		return m.submitCreate(ctx, sub)
	}
}

func (m *StudentManager) submitCreate(ctx context.Context, sub Submission) error {
	rec, err := m.store.Insert(ctx, sub.Draft)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.errMsg = m.printer.Sprintf(i18n.MsgCreateFailed, err.Error())
		return err
	}
	m.students = m.students.applyCreated(rec)
	m.form.reset()
	m.errMsg = ""
	return nil
}

func (m *StudentManager) submitUpdate(ctx context.Context, sub Submission) error {
	unlock, err := m.locks.Lock(ctx, sub.ID)
	if err != nil {
		m.fail(i18n.MsgUpdateFailed, err)
		return err
	}
	defer unlock()

	rec, err := m.store.Update(ctx, sub.ID, sub.Draft)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.errMsg = m.printer.Sprintf(i18n.MsgUpdateFailed, err.Error())
		return err
	}
	m.students = m.students.applyUpdated(sub.ID, rec)
	m.form.reset()
	m.errMsg = ""
	return nil
}

// Delete asks confirmer first; a declined (or nil) confirmer is a silent
// no-op. A confirmed delete removes the row from the list once the store
// accepts it.
func (m *StudentManager) Delete(ctx context.Context, id int64, confirmer Confirmer) error {
	if confirmer == nil || !confirmer.Confirm(m.printer.Sprintf(i18n.MsgConfirmDelete)) {
		return nil
	}

	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		m.fail(i18n.MsgDeleteFailed, err)
		return err
	}
	defer unlock()

	err = m.store.Delete(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.errMsg = m.printer.Sprintf(i18n.MsgDeleteFailed, err.Error())
		return err
	}
	m.students = m.students.applyDeleted(id)
	m.errMsg = ""
	return nil
}

func (m *StudentManager) fail(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = m.printer.Sprintf(key, err.Error())
}
