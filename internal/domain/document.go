package domain

import "fmt"

// Index field names. These are the on-wire contract with the search engine.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPortal      = "portal"
	FieldVector      = "vector"
	FieldDepartment  = "department"
	FieldCategories  = "categories"
	FieldColumns     = "columns"
	FieldIsTest      = "isTest"
)

// IndexDocument is the projection of a Record stored in the search index.
// ID always equals the Record ID.
type IndexDocument struct {
	ID          string
	Title       string
	Description string
	Portal      string
	Department  string
	Categories  []string
	Columns     []string
	IsTest      bool
	Vector      []float32
}

// NewIndexDocument projects a record and its vector into an index document.
func NewIndexDocument(r *Record, vector []float32) IndexDocument {
	return IndexDocument{
		ID:          r.ID,
		Title:       r.Name,
		Description: r.Description,
		Portal:      r.PortalID,
		Department:  r.Department,
		Categories:  r.Categories,
		Columns:     r.ColumnFields,
		IsTest:      r.IsTest,
		Vector:      vector,
	}
}

// BuildDocuments pairs records with vectors by position.
// A nil vectors slice gives every document a zero vector of length dim.
func BuildDocuments(records []Record, vectors [][]float32, dim int) ([]IndexDocument, error) {
	if vectors != nil && len(vectors) != len(records) {
		return nil, fmt.Errorf("%w: %d records, %d vectors", ErrLengthMismatch, len(records), len(vectors))
	}

	docs := make([]IndexDocument, len(records))
	for i := range records {
		var vec []float32
		if vectors != nil {
			vec = vectors[i]
		} else {
			vec = ZeroVector(dim)
		}
		docs[i] = NewIndexDocument(&records[i], vec)
	}
	return docs, nil
}

// ZeroVector returns a zero-filled vector of length dim.
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}

// ZeroVectors returns n independent zero vectors of length dim.
func ZeroVectors(n, dim int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = ZeroVector(dim)
	}
	return out
}
