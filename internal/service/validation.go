package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/maxviazov/agency-travels-service/internal/model"
	"github.com/maxviazov/agency-travels-service/internal/repository"
)

const (
	defaultLimit = 50
	// maxMonthSpan is how many calendar months apart the two ends of a range may be.
	maxMonthSpan = 1
	minQueryLen  = 2
)

func normalizePage(p repository.Page) repository.Page {
	limit := p.Limit
	offset := p.Offset
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

// FieldErrorType is the per-field outcome of a travel search validation.
type FieldErrorType int

const (
	NoError FieldErrorType = iota
	BlankField
	InvalidRange
)

func (t FieldErrorType) String() string {
	switch t {
	case BlankField:
		return "blank_field"
	case InvalidRange:
		return "invalid_range"
	default:
		return "no_error"
	}
}

func (t FieldErrorType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// TravelFieldErrors carries one FieldErrorType for each of the four date inputs.
type TravelFieldErrors struct {
	StartDateFrom  FieldErrorType `json:"start_date_from"`
	StartDateUntil FieldErrorType `json:"start_date_until"`
	EndDateFrom    FieldErrorType `json:"end_date_from"`
	EndDateUntil   FieldErrorType `json:"end_date_until"`
}

func (e TravelFieldErrors) HasErrors() bool {
	return e.StartDateFrom != NoError || e.StartDateUntil != NoError ||
		e.EndDateFrom != NoError || e.EndDateUntil != NoError
}

// FieldErrors lists only the fields that carry an error, in input order.
func (e TravelFieldErrors) FieldErrors() []FieldError {
	var out []FieldError
	add := func(field string, t FieldErrorType) {
		switch t {
		case BlankField:
			out = append(out, FieldError{Field: field, Code: t.String(), Message: "must not be blank"})
		case InvalidRange:
			out = append(out, FieldError{Field: field, Code: t.String(), Message: "range must span at most one month"})
		}
	}
	add("start_date_from", e.StartDateFrom)
	add("start_date_until", e.StartDateUntil)
	add("end_date_from", e.EndDateFrom)
	add("end_date_until", e.EndDateUntil)
	return out
}

// TravelSearchError is the validation error of a travel search. It unwraps to
// ErrInvalidInput so it renders like any other invalid input.
type TravelSearchError struct {
	Errors TravelFieldErrors
}

func (e *TravelSearchError) Error() string        { return ErrInvalidInput.Error() }
func (e *TravelSearchError) Unwrap() error        { return ErrInvalidInput }
func (e *TravelSearchError) Fields() []FieldError { return e.Errors.FieldErrors() }

// TravelFieldErrorsOf returns the per-field kinds carried by err, if any.
func TravelFieldErrorsOf(err error) (TravelFieldErrors, bool) {
	var tse *TravelSearchError
	if errors.As(err, &tse) {
		return tse.Errors, true
	}
	return TravelFieldErrors{}, false
}

// ValidateTravelSearch checks the four raw date inputs. Every blank field is
// reported; each non-blank pair (start, end) is independently limited to a one
// month span. On success the returned filter holds the normalized inputs.
func ValidateTravelSearch(startFrom, startUntil, endFrom, endUntil string) (model.SearchFilter, TravelFieldErrors) {
	f := NewSearchFilter(startFrom, startUntil, endFrom, endUntil)
	var errs TravelFieldErrors
	errs.StartDateFrom, errs.StartDateUntil = checkRange(f.StartDateFrom, f.StartDateUntil)
	errs.EndDateFrom, errs.EndDateUntil = checkRange(f.EndDateFrom, f.EndDateUntil)
	return f, errs
}

// NewSearchFilter builds a filter from raw inputs. Blanks are trimmed and the
// date forms month accepts are rewritten to dd/mm/yyyy, the only form the
// travel sources take.
func NewSearchFilter(startFrom, startUntil, endFrom, endUntil string) model.SearchFilter {
	return model.SearchFilter{
		StartDateFrom:  normalizeDate(startFrom),
		StartDateUntil: normalizeDate(startUntil),
		EndDateFrom:    normalizeDate(endFrom),
		EndDateUntil:   normalizeDate(endUntil),
	}
}

// normalizeDate rewrites 01Mar2021, 01-03-2021 and 01.03.2021 to 01/03/2021.
// Anything else is returned trimmed but otherwise untouched.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	switch len(s) {
	case 9:
		m, ok := monthAbbrev[strings.ToLower(s[2:5])]
		if ok && allDigits(s[:2]) && allDigits(s[5:]) {
			return fmt.Sprintf("%s/%02d/%s", s[:2], m, s[5:])
		}
	case 10:
		sep := s[2]
		if (sep == '-' || sep == '.') && s[5] == sep &&
			allDigits(s[:2]) && allDigits(s[3:5]) && allDigits(s[6:]) {
			return s[:2] + "/" + s[3:5] + "/" + s[6:]
		}
	}
	return s
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ValidateSearchFilter adapts ValidateTravelSearch to a ready-made filter.
func ValidateSearchFilter(f model.SearchFilter) error {
	_, errs := ValidateTravelSearch(f.StartDateFrom, f.StartDateUntil, f.EndDateFrom, f.EndDateUntil)
	if errs.HasErrors() {
		return &TravelSearchError{Errors: errs}
	}
	return nil
}

func checkRange(from, until string) (FieldErrorType, FieldErrorType) {
	fromErr, untilErr := NoError, NoError
	if from == "" {
		fromErr = BlankField
	}
	if until == "" {
		untilErr = BlankField
	}
	if fromErr != NoError || untilErr != NoError {
		return fromErr, untilErr
	}
	if !isInValidRange(from, until) {
		return InvalidRange, InvalidRange
	}
	return NoError, NoError
}

// isInValidRange compares month numbers only and assumes both dates share a
// year: Dec→Jan yields a negative span and passes, Jan→Dec of the next year fails.
func isInValidRange(from, until string) bool {
	mFrom, ok := month(from)
	if !ok {
		return false
	}
	mUntil, ok := month(until)
	if !ok {
		return false
	}
	return mUntil-mFrom <= maxMonthSpan
}

var monthAbbrev = map[string]int{
	"jan": 1, "feb": 2, "fev": 2, "mar": 3, "apr": 4, "abr": 4,
	"may": 5, "mai": 5, "jun": 6, "jul": 7, "aug": 8, "ago": 8,
	"sep": 9, "set": 9, "oct": 10, "out": 10, "nov": 11, "dec": 12, "dez": 12,
}

// month reads the fixed-width window [2,5) of a date such as 01/03/2021 or
// 01Mar2021: either a separator plus two digits or a three-letter abbreviation.
func month(date string) (int, bool) {
	if len(date) < 5 {
		return 0, false
	}
	window := date[2:5]
	if m, ok := monthAbbrev[strings.ToLower(window)]; ok {
		return m, true
	}
	digits := strings.TrimLeft(window, "/-. ")
	m, err := strconv.Atoi(digits)
	if err != nil || m < 1 || m > 12 {
		return 0, false
	}
	return m, true
}

// IsValidAgencyQuery reports whether a name fragment is long enough to search by.
func IsValidAgencyQuery(q string) bool {
	return len([]rune(strings.TrimSpace(q))) >= minQueryLen
}
