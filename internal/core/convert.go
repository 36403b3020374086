package core

// convert.go provides the cell-level coercions used by group field specs.
//
// These functions absorb the inconsistencies of the campaign exports:
//   - Flag columns spelled "yes", " YES ", "no", "unknown" or left empty
//   - Month names as three-letter English abbreviations in any case
//   - Day numbers with or without a leading zero
//
// Every function is total. Unrecognized input resolves to "0" or to the null
// marker (pgtype.Text with Valid=false); nothing here returns an error.

import (
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
)

// ContactYear is the campaign year used for last_contact_date.
const ContactYear = "2022"

var (
	flagTrue  = pgtype.Text{String: "1", Valid: true}
	flagFalse = pgtype.Text{String: "0", Valid: true}
)

// monthNumbers maps lowercase English month abbreviations to two-digit numbers.
var monthNumbers = map[string]string{
	"jan": "01",
	"feb": "02",
	"mar": "03",
	"apr": "04",
	"may": "05",
	"jun": "06",
	"jul": "07",
	"aug": "08",
	"sep": "09",
	"oct": "10",
	"nov": "11",
	"dec": "12",
}

// NormalizeFlag returns "1" when the trimmed, lowercased value equals match
// and "0" for anything else, null included.
func NormalizeFlag(v pgtype.Text, match string) pgtype.Text {
	if v.Valid && strings.ToLower(strings.TrimSpace(v.String)) == match {
		return flagTrue
	}
	return flagFalse
}

// FlagNormalizer binds NormalizeFlag to a match string for use in a FieldSpec.
func FlagNormalizer(match string) func(pgtype.Text) pgtype.Text {
	match = strings.ToLower(strings.TrimSpace(match))
	return func(v pgtype.Text) pgtype.Text {
		return NormalizeFlag(v, match)
	}
}

// Replace returns a normalizer that applies each old/new pair in order.
// Nulls pass through untouched.
func Replace(oldnew ...string) func(pgtype.Text) pgtype.Text {
	if len(oldnew)%2 == 1 {
		panic("core.Replace: odd argument count")
	}
	return func(v pgtype.Text) pgtype.Text {
		if !v.Valid {
			return v
		}
		s := v.String
		for i := 0; i < len(oldnew); i += 2 {
			s = strings.ReplaceAll(s, oldnew[i], oldnew[i+1])
		}
		return pgtype.Text{String: s, Valid: true}
	}
}

// NullIf returns a normalizer that maps an exact value to the null marker.
func NullIf(value string) func(pgtype.Text) pgtype.Text {
	return func(v pgtype.Text) pgtype.Text {
		if v.Valid && v.String == value {
			return pgtype.Text{}
		}
		return v
	}
}

// Chain composes normalizers left to right.
func Chain(fns ...func(pgtype.Text) pgtype.Text) func(pgtype.Text) pgtype.Text {
	return func(v pgtype.Text) pgtype.Text {
		for _, fn := range fns {
			v = fn(v)
		}
		return v
	}
}

// MonthNumber maps a month abbreviation to "01".."12", case-insensitive and
// whitespace-trimmed. Anything else, numeric months included, is null.
func MonthNumber(v pgtype.Text) pgtype.Text {
	if !v.Valid {
		return pgtype.Text{}
	}
	num, ok := monthNumbers[strings.ToLower(strings.TrimSpace(v.String))]
	if !ok {
		return pgtype.Text{}
	}
	return pgtype.Text{String: num, Valid: true}
}

// PadDay left-pads the day text with zeros to two characters. It works on
// the text, so "05" stays "05" and non-numeric values are padded rather than
// rejected. Zeros go after a leading sign.
func PadDay(v pgtype.Text) pgtype.Text {
	if !v.Valid {
		return pgtype.Text{}
	}
	s := v.String
	if n := utf8.RuneCountInString(s); n < 2 {
		zeros := strings.Repeat("0", 2-n)
		if s != "" && (s[0] == '-' || s[0] == '+') {
			s = s[:1] + zeros + s[1:]
		} else {
			s = zeros + s
		}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ContactDate builds "2022-MM-DD" from month and day cells. A null segment
// is rendered empty, so an unmapped month yields "2022--DD" and the row is
// still emitted.
func ContactDate(month, day pgtype.Text) pgtype.Text {
	m := MonthNumber(month)
	d := PadDay(day)
	return pgtype.Text{String: ContactYear + "-" + m.String + "-" + d.String, Valid: true}
}
