package index

import (
	"github.com/kailas-cloud/vecsync/internal/db"
	"github.com/kailas-cloud/vecsync/internal/domain"
)

// Autocomplete sub-field settings for title and description.
const (
	AutocompleteSubField = "complete"
	AutocompleteMinGram  = 1
	AutocompleteMaxGram  = 30
)

// Schema returns the dataset index definition. prefix is used only by
// keyspace-based engines and may be empty.
func Schema(name string, vectorDim int, prefix string) (*db.IndexDefinition, error) {
	ac := db.Autocomplete{
		SubField:  AutocompleteSubField,
		MinGram:   AutocompleteMinGram,
		MaxGram:   AutocompleteMaxGram,
		Lowercase: true,
	}

	b := db.NewIndex(name)
	if prefix != "" {
		b = b.Prefix(prefix)
	}
	return b.
		TextWithAutocomplete(domain.FieldTitle, ac).
		TextWithAutocomplete(domain.FieldDescription, ac).
		Keyword(domain.FieldPortal).
		Vector(domain.FieldVector, vectorDim, db.VectorHNSW, db.DistanceCosine).
		Keyword(domain.FieldDepartment).
		KeywordList(domain.FieldCategories).
		KeywordList(domain.FieldColumns).
		Boolean(domain.FieldIsTest).
		Build()
}

// toDocument converts an index document into the engine payload.
func toDocument(d *domain.IndexDocument) db.Document {
	return db.Document{
		ID: d.ID,
		Fields: map[string]any{
			domain.FieldTitle:       d.Title,
			domain.FieldDescription: d.Description,
			domain.FieldPortal:      d.Portal,
			domain.FieldDepartment:  d.Department,
			domain.FieldCategories:  nonNil(d.Categories),
			domain.FieldColumns:     nonNil(d.Columns),
			domain.FieldIsTest:      d.IsTest,
			domain.FieldVector:      d.Vector,
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
