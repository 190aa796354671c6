package probe

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"csv2parquet/internal/schema"
)

// column is the inference result for one header.
type column struct {
	header   string
	name     string
	typ      schema.Type
	nullable bool
}

// inferColumns returns one inferred column per header based on the sampled rows.
func inferColumns(headers []string, rows [][]string) []column {
	n := len(headers)
	vals := make([][]string, n)
	for _, row := range rows {
		for i := 0; i < n && i < len(row); i++ {
			vals[i] = append(vals[i], row[i])
		}
	}

	cols := make([]column, n)
	used := make(map[string]int, n)
	for i, h := range headers {
		nonEmpty := nonEmptyTrimmed(vals[i])
		cols[i] = column{
			header:   h,
			name:     uniqueName(fieldName(h), used),
			typ:      inferType(nonEmpty),
			nullable: len(nonEmpty) < len(vals[i]) || len(vals[i]) == 0,
		}
	}
	return cols
}

// inferType picks the narrowest of long, double and string that every
// non-empty value satisfies. A column with no values is a string.
func inferType(nonEmpty []string) schema.Type {
	if len(nonEmpty) == 0 {
		return schema.TypeString
	}
	if allMatch(nonEmpty, isInt) {
		return schema.TypeLong
	}
	if allMatch(nonEmpty, isFloat) {
		return schema.TypeDouble
	}
	return schema.TypeString
}

// nonEmptyTrimmed returns the non-empty, trimmed values.
func nonEmptyTrimmed(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// allMatch reports whether every value satisfies fn.
func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

// isInt requires a signed base-10 integer that fits in int64.
func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isFloat accepts integers, decimals and scientific notation.
func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var avroName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// fieldName keeps a header that already is a valid Avro name, so the schema
// matches the file as-is. Anything else is normalized.
func fieldName(header string) string {
	if avroName.MatchString(header) {
		return header
	}
	return normalizeFieldName(header)
}

// normalizeFieldName converts arbitrary header text into a lowercase ASCII
// identifier:
//  1. lowercase
//  2. strip accents (NFD → remove Mn → NFC)
//  3. keep [a-z0-9_]; convert space/dash/dot to underscore; drop others
//  4. prefix "_" when it would start with a digit; "col" if empty
func normalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// uniqueName appends _2, _3, ... to repeated names. Case-insensitive, since
// Parquet column names differing only in the first letter's case collide.
func uniqueName(name string, used map[string]int) string {
	key := strings.ToLower(name)
	used[key]++
	if used[key] == 1 {
		return name
	}
	for {
		cand := name + "_" + strconv.Itoa(used[key])
		if _, taken := used[strings.ToLower(cand)]; !taken {
			used[strings.ToLower(cand)] = 1
			return cand
		}
		used[key]++
	}
}
