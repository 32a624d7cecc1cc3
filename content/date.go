package content

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// UnpublishedPlaceholder is shown instead of a date for documents that have
// never been published (previews).
const UnpublishedPlaceholder = "Não publicado"

var supportedLocales = []language.Tag{
	language.BrazilianPortuguese,
	language.AmericanEnglish,
	language.Spanish,
}

var monthAbbreviations = [][12]string{
	{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
}

var localeMatcher = language.NewMatcher(supportedLocales)

// DateFormatter renders publication dates as "D MMM YYYY" with a fixed
// locale's month abbreviations.
type DateFormatter struct {
	months   [12]string
	location *time.Location
}

// NewDateFormatter returns a formatter for the closest supported locale to
// the given BCP 47 tag (pt-BR when nothing matches). A nil location means UTC.
func NewDateFormatter(locale string, loc *time.Location) DateFormatter {
	idx := 0
	if tag, err := language.Parse(locale); err == nil {
		_, idx, _ = localeMatcher.Match(tag)
	}
	if loc == nil {
		loc = time.UTC
	}
	return DateFormatter{months: monthAbbreviations[idx], location: loc}
}

var defaultFormatter = NewDateFormatter("pt-BR", time.UTC)

// Format renders t as "D MMM YYYY". A nil or zero time fails with ErrInvalidDate.
func (f DateFormatter) Format(t *time.Time) (string, error) {
	if t == nil || t.IsZero() {
		return "", ErrInvalidDate
	}
	lt := t.In(f.location)
	return fmt.Sprintf("%d %s %d", lt.Day(), f.months[lt.Month()-1], lt.Year()), nil
}

// Display is Format with UnpublishedPlaceholder in place of ErrInvalidDate.
func (f DateFormatter) Display(t *time.Time) string {
	s, err := f.Format(t)
	if err != nil {
		return UnpublishedPlaceholder
	}
	return s
}

// FormatDate formats t with the default pt-BR formatter in UTC.
func FormatDate(t *time.Time) (string, error) {
	return defaultFormatter.Format(t)
}

// DisplayDate is FormatDate with the unpublished placeholder.
func DisplayDate(t *time.Time) string {
	return defaultFormatter.Display(t)
}
