package redis

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
)

const (
	matchAll    = "*"
	scoreField  = "__vector_score"
	vectorParam = "BLOB"
)

// renderClause translates a query clause into FT.SEARCH query syntax (DIALECT 2).
func renderClause(c query.Clause) (string, error) {
	switch c := c.(type) {
	case query.MatchAll:
		return matchAll, nil

	case query.MultiMatch:
		return renderMultiMatch(c), nil

	case query.Match:
		return renderMatch(c), nil

	case query.Boosting:
		return renderBoosting(c)

	case query.Bool:
		parts := make([]string, 0, len(c.Must))
		for _, sub := range c.Must {
			r, err := renderClause(sub)
			if err != nil {
				return "", err
			}
			if r != matchAll {
				parts = append(parts, "("+r+")")
			}
		}
		if len(parts) == 0 {
			return matchAll, nil
		}
		return strings.Join(parts, " "), nil

	default:
		return "", fmt.Errorf("%w: %T", db.ErrUnsupportedClause, c)
	}
}

// renderMultiMatch ORs every term across the fields. AUTO fuzziness follows
// the usual length thresholds: exact up to 2 chars, distance 1 up to 5, then 2.
func renderMultiMatch(m query.MultiMatch) string {
	terms := strings.FieldsFunc(strings.ToLower(m.Query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(terms) == 0 {
		return matchAll
	}

	fuzzy := make([]string, len(terms))
	for i, t := range terms {
		fuzzy[i] = fuzzTerm(t, m.Fuzziness)
	}
	return fmt.Sprintf("@%s:(%s)", strings.Join(m.Fields, "|"), strings.Join(fuzzy, "|"))
}

func fuzzTerm(t, fuzziness string) string {
	if fuzziness != query.FuzzinessAuto {
		return t
	}
	switch n := len([]rune(t)); {
	case n <= 2:
		return t
	case n <= 5:
		return "%" + t + "%"
	default:
		return "%%" + t + "%%"
	}
}

func renderMatch(m query.Match) string {
	var v string
	switch val := m.Value.(type) {
	case bool:
		v = strconv.FormatBool(val)
	case string:
		v = tagEscaper.Replace(val)
	default:
		v = tagEscaper.Replace(fmt.Sprint(val))
	}
	return fmt.Sprintf("@%s:{%s}", m.Field, v)
}

// renderBoosting keeps documents matching both sides but scales their score
// by NegativeBoost.
func renderBoosting(b query.Boosting) (string, error) {
	pos, err := renderClause(b.Positive)
	if err != nil {
		return "", err
	}
	neg, err := renderClause(b.Negative)
	if err != nil {
		return "", err
	}

	without := "-(" + neg + ")"
	with := "(" + neg + ")"
	if pos != matchAll {
		without = "(" + pos + ") " + without
		with = "(" + pos + ") " + with
	}
	weight := strconv.FormatFloat(b.NegativeBoost, 'f', -1, 64)
	return fmt.Sprintf("(%s) | ((%s) => { $weight: %s; })", without, with, weight), nil
}

// renderKNN builds the hybrid KNN query for a cosine script score.
func renderKNN(ss query.ScriptScore, k int) (string, error) {
	if ss.Script != query.CosineScript {
		return "", fmt.Errorf("%w: script %q", db.ErrUnsupportedClause, ss.Script)
	}
	base := matchAll
	if ss.Query != nil {
		r, err := renderClause(ss.Query)
		if err != nil {
			return "", err
		}
		base = r
	}
	knn := fmt.Sprintf("[KNN %d @%s $%s AS %s]", k, ss.Field, vectorParam, scoreField)
	if base == matchAll {
		return "*=>" + knn, nil
	}
	return "(" + base + ")=>" + knn, nil
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)
