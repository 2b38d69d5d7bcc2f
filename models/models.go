package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned by ParseField for names outside the student form.
var ErrUnknownField = errors.New("unknown student field")

// StudentRecord represents a stored student row
type StudentRecord struct {
	ID      int64  `json:"id"`      // Assigned by the data store on insert
	Name    string `json:"name"`    // Student name (required by the form)
	Address string `json:"address"` // Postal address
	Phone   string `json:"phone"`   // Phone number
	Note    string `json:"note"`    // Free-form, multi-line observations
}

// Draft is the id-less shape sent to the data store on insert and update
type Draft struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Note    string `json:"note"`
}

// Draft returns the record's editable fields.
func (r StudentRecord) Draft() Draft {
	return Draft{Name: r.Name, Address: r.Address, Phone: r.Phone, Note: r.Note}
}

// WithID builds the stored record for d under the given id.
func (d Draft) WithID(id int64) StudentRecord {
	return StudentRecord{ID: id, Name: d.Name, Address: d.Address, Phone: d.Phone, Note: d.Note}
}

// Field names one editable student field.
type Field string

const (
	FieldName    Field = "name"
	FieldAddress Field = "address"
	FieldPhone   Field = "phone"
	FieldNote    Field = "note"
)

// ParseField maps a form input name to a Field.
func ParseField(name string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(name))); f {
	case FieldName, FieldAddress, FieldPhone, FieldNote:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
}

// Set returns a copy of d with field f replaced by value.
func (d Draft) Set(f Field, value string) Draft {
	switch f {
	case FieldName:
		d.Name = value
	case FieldAddress:
		d.Address = value
	case FieldPhone:
		d.Phone = value
	case FieldNote:
		d.Note = value
	}
	return d
}
