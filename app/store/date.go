package store

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the user-facing date form, dd-mm-yyyy
	DateLayout = "02-01-2006"
	// DisplayLayout is used by the html page
	DisplayLayout = "02/01/2006"
	storeLayout   = "2006-01-02"
)

// ErrInvalidDate returned for a date not matching DateLayout
var ErrInvalidDate = errors.New("invalid date format, use dd-mm-yyyy")

// Date is a calendar day without time and zone
type Date struct {
	t time.Time
}

// NewDate makes Date for the calendar day of t, as seen in t's location
func NewDate(t time.Time) Date {
	yy, mm, dd := t.Date()
	return Date{t: time.Date(yy, mm, dd, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current local day
func Today() Date {
	return NewDate(time.Now())
}

// ParseDate parses dd-mm-yyyy. The word "today" is accepted too.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "today") {
		return Today(), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return NewDate(t), nil
}

// Time returns midnight UTC of the day
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date is unset
func (d Date) IsZero() bool { return d.t.IsZero() }

// Equal reports whether both dates are the same day
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// Before reports whether d is an earlier day than other
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// String returns dd-mm-yyyy
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Display returns dd/mm/yyyy
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DisplayLayout)
}

// MarshalText implements encoding.TextMarshaler with dd-mm-yyyy
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with dd-mm-yyyy
func (d *Date) UnmarshalText(text []byte) error {
	v, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Value implements driver.Valuer, stores yyyy-mm-dd
func (d Date) Value() (driver.Value, error) {
	return d.t.Format(storeLayout), nil
}

// Scan implements sql.Scanner. The driver may hand over DATE columns as time.Time
// or as raw text; rows written by older versions keep dd-mm-yyyy text.
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("can't scan %T into date", value)
	}
}

func (d *Date) scanText(s string) error {
	for _, layout := range []string{storeLayout, DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			*d = NewDate(t)
			return nil
		}
	}
	return fmt.Errorf("can't parse stored date %q", s)
}
