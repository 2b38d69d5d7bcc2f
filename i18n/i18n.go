// Package i18n holds the user-facing strings of the student page. Keys are the
// English texts; Spanish is the default language.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys.
const (
	MsgLoadFailed    = "Error loading students"
	MsgCreateFailed  = "Error creating student: %s"
	MsgUpdateFailed  = "Error updating student: %s"
	MsgDeleteFailed  = "Error deleting student: %s"
	MsgConfirmDelete = "Are you sure you want to delete this student?"
	MsgLoading       = "Loading students..."
	MsgTitle         = "Student Management"
	MsgNewStudent    = "New Student"
	MsgEditStudent   = "Edit Student"
	MsgCreateButton  = "Create Student"
	MsgUpdateButton  = "Update Student"
	MsgCancel        = "Cancel"
	MsgListTitle     = "Student List"
	MsgEmptyList     = "No students registered"
	MsgColID         = "ID"
	MsgColName       = "Name"
	MsgColPhone      = "Phone"
	MsgColAddress    = "Address"
	MsgColNote       = "Notes"
	MsgColActions    = "Actions"
	MsgEdit          = "Edit"
	MsgDelete        = "Delete"
	MsgYes           = "Yes, delete"
	MsgNo            = "No, go back"
	MsgReload        = "Reload"
)

var spanish = map[string]string{
	MsgLoadFailed:    "Error al cargar estudiantes",
	MsgCreateFailed:  "Error al crear estudiante: %s",
	MsgUpdateFailed:  "Error al actualizar estudiante: %s",
	MsgDeleteFailed:  "Error al eliminar estudiante: %s",
	MsgConfirmDelete: "¿Estás seguro de eliminar este estudiante?",
	MsgLoading:       "Cargando estudiantes...",
	MsgTitle:         "Gestión de Estudiantes",
	MsgNewStudent:    "Nuevo Estudiante",
	MsgEditStudent:   "Editar Estudiante",
	MsgCreateButton:  "Crear Estudiante",
	MsgUpdateButton:  "Actualizar Estudiante",
	MsgCancel:        "Cancelar",
	MsgListTitle:     "Lista de Estudiantes",
	MsgEmptyList:     "No hay estudiantes registrados",
	MsgColID:         "ID",
	MsgColName:       "Nombre",
	MsgColPhone:      "Teléfono",
	MsgColAddress:    "Dirección",
	MsgColNote:       "Observaciones",
	MsgColActions:    "Acciones",
	MsgEdit:          "Editar",
	MsgDelete:        "Eliminar",
	MsgYes:           "Sí, eliminar",
	MsgNo:            "No, volver",
	MsgReload:        "Recargar",
}

func init() {
	for key, es := range spanish {
		// Keys are static strings; SetString only fails on malformed tags.
		_ = message.SetString(language.Spanish, key, es)
		_ = message.SetString(language.English, key, key)
	}
}

// Default is the language used when none, or an unsupported one, is configured.
var Default = language.Spanish

var matcher = language.NewMatcher([]language.Tag{language.Spanish, language.English})

// NewPrinter returns a printer for the best supported match of the given
// BCP 47 tag, falling back to Default.
func NewPrinter(lang string) *message.Printer {
	return message.NewPrinter(Match(lang))
}

// Match resolves lang to Spanish or English.
func Match(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil || lang == "" {
		return Default
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Default
	}
	return []language.Tag{language.Spanish, language.English}[idx]
}
