package query

// Clause is a node of an engine-neutral query expression.
// Drivers render clauses into their own wire format.
type Clause interface {
	clause()
}

// MatchAll matches every document.
type MatchAll struct{}

// MultiMatch is a full-text match of Query over several fields.
// Fuzziness "AUTO" scales the allowed edit distance with term length.
type MultiMatch struct {
	Fields    []string
	Query     string
	Fuzziness string
}

// Match is a single-field match. Value is a string or a bool.
type Match struct {
	Field string
	Value any
}

// Boosting keeps documents matching Negative but multiplies their
// score by NegativeBoost.
type Boosting struct {
	Positive      Clause
	Negative      Clause
	NegativeBoost float64
}

// Bool requires every clause in Must to match.
type Bool struct {
	Must []Clause
}

// ScriptScore scores documents matched by Query with Script, using Vector
// as the query_vector parameter.
type ScriptScore struct {
	Query  Clause
	Field  string
	Script string
	Vector []float32
}

func (MatchAll) clause()    {}
func (MultiMatch) clause()  {}
func (Match) clause()       {}
func (Boosting) clause()    {}
func (Bool) clause()        {}
func (ScriptScore) clause() {}

// Expression is a ranked query with a result window.
type Expression struct {
	Query  Clause
	From   int
	Size   int
	Source []string
}

// CountExpression counts documents matching Query. It is never paginated.
type CountExpression struct {
	Query Clause
}
