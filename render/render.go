// Package render turns a page state snapshot into HTML. It performs no I/O
// besides writing to the given writer.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"golang.org/x/text/message"
	"student-manager-go/i18n"
	"student-manager-go/manager"
	"student-manager-go/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Static holds the page stylesheet, served under /static.
//
//go:embed static
var Static embed.FS

// StaticFiles returns Static rooted at the static directory.
func StaticFiles() fs.FS {
	sub, err := fs.Sub(Static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

var templates = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

// Labels are the localized strings of the page.
type Labels struct {
	Title      string
	Loading    string
	FormTitle  string
	Submit     string
	Cancel     string
	ListTitle  string
	EmptyList  string
	Reload     string
	Edit       string
	Delete     string
	Columns    []string
	Name       string
	Phone      string
	Address    string
	Note       string
	Confirm    string
	ConfirmYes string
	ConfirmNo  string
}

// View is everything the page template needs.
type View struct {
	Students  []models.StudentRecord
	Draft     models.Draft
	EditingID *int64
	Loading   bool
	Error     string
	Labels    Labels
}

// Editing reports whether the form submits an update.
func (v View) Editing() bool { return v.EditingID != nil }

// NewView builds the view of st, with labels in the printer's language.
func NewView(st manager.State, p *message.Printer) View {
	return View{
		Students:  st.Students,
		Draft:     st.Draft,
		EditingID: st.EditingID,
		Loading:   st.Loading,
		Error:     st.Error,
		Labels:    labels(p, st.EditingID != nil),
	}
}

func labels(p *message.Printer, editing bool) Labels {
	l := Labels{
		Title:      p.Sprintf(i18n.MsgTitle),
		Loading:    p.Sprintf(i18n.MsgLoading),
		FormTitle:  p.Sprintf(i18n.MsgNewStudent),
		Submit:     p.Sprintf(i18n.MsgCreateButton),
		Cancel:     p.Sprintf(i18n.MsgCancel),
		ListTitle:  p.Sprintf(i18n.MsgListTitle),
		EmptyList:  p.Sprintf(i18n.MsgEmptyList),
		Reload:     p.Sprintf(i18n.MsgReload),
		Edit:       p.Sprintf(i18n.MsgEdit),
		Delete:     p.Sprintf(i18n.MsgDelete),
		Name:       p.Sprintf(i18n.MsgColName),
		Phone:      p.Sprintf(i18n.MsgColPhone),
		Address:    p.Sprintf(i18n.MsgColAddress),
		Note:       p.Sprintf(i18n.MsgColNote),
		Confirm:    p.Sprintf(i18n.MsgConfirmDelete),
		ConfirmYes: p.Sprintf(i18n.MsgYes),
		ConfirmNo:  p.Sprintf(i18n.MsgNo),
	}
	if editing {
		l.FormTitle = p.Sprintf(i18n.MsgEditStudent)
		l.Submit = p.Sprintf(i18n.MsgUpdateButton)
	}
	l.Columns = []string{
		p.Sprintf(i18n.MsgColID),
		l.Name,
		l.Phone,
		l.Address,
		l.Note,
		p.Sprintf(i18n.MsgColActions),
	}
	return l
}

// Page writes the student page. While loading only the indicator is written.
func Page(w io.Writer, v View) error {
	if err := templates.ExecuteTemplate(w, "page.html", v); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// ConfirmView is the delete confirmation prompt for one student.
type ConfirmView struct {
	Student models.StudentRecord
	Labels  Labels
}

// Confirm writes the yes/no prompt shown before deleting a student.
func Confirm(w io.Writer, v ConfirmView) error {
	if err := templates.ExecuteTemplate(w, "confirm.html", v); err != nil {
		return fmt.Errorf("failed to render confirmation: %w", err)
	}
	return nil
}

// NewConfirmView builds the prompt for rec.
func NewConfirmView(rec models.StudentRecord, p *message.Printer) ConfirmView {
	return ConfirmView{Student: rec, Labels: labels(p, false)}
}
