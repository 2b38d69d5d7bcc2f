package manager

import "student-manager-go/models"

// listState mirrors the rows returned by the data store. It is never sorted
// locally; only Load restores ascending id order.
type listState []models.StudentRecord

func (l listState) applyCreated(rec models.StudentRecord) listState {
	return append(l, rec)
}

func (l listState) applyUpdated(id int64, rec models.StudentRecord) listState {
	for i := range l {
		if l[i].ID == id {
			l[i] = rec
			break
		}
	}
	return l
}

func (l listState) applyDeleted(id int64) listState {
	for i := range l {
		if l[i].ID == id {
			return append(l[:i:i], l[i+1:]...)
		}
	}
	return l
}

func (l listState) find(id int64) (models.StudentRecord, bool) {
	for _, rec := range l {
		if rec.ID == id {
			return rec, true
		}
	}
	return models.StudentRecord{}, false
}

// formState is the draft being edited and the optional editing target.
type formState struct {
	draft     models.Draft
	editingID *int64
}

func (f *formState) setField(field models.Field, value string) {
	f.draft = f.draft.Set(field, value)
}

func (f *formState) beginEdit(rec models.StudentRecord) {
	id := rec.ID
	f.draft = rec.Draft()
	f.editingID = &id
}

func (f *formState) reset() {
	*f = formState{}
}

// SubmissionKind selects what a form submission does.
type SubmissionKind int

const (
	Create SubmissionKind = iota
	Update
)

func (k SubmissionKind) String() string {
	if k == Update {
		return "update"
	}
	return "create"
}

// Submission is the store call a form submit will issue. ID is only
// meaningful for Update.
type Submission struct {
	Kind  SubmissionKind
	ID    int64
	Draft models.Draft
}

func (f formState) submission() Submission {
	if f.editingID == nil {
		return Submission{Kind: Create, Draft: f.draft}
	}
	return Submission{Kind: Update, ID: *f.editingID, Draft: f.draft}
}
