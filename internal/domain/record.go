package domain

import "time"

// Record is a dataset record owned by the record store. Read-only here.
type Record struct {
	ID                string
	Name              string
	Description       string
	PortalID          string
	Department        string
	Categories        []string
	ColumnFields      []string
	IsTest            bool
	MetadataUpdatedAt time.Time
}

// EmbeddingText returns the text that represents the record for embedding.
func (r *Record) EmbeddingText() string {
	return r.Name + ". " + r.Description
}

// EmbeddingTexts collects EmbeddingText for each record, in order.
func EmbeddingTexts(records []Record) []string {
	texts := make([]string, len(records))
	for i := range records {
		texts[i] = records[i].EmbeddingText()
	}
	return texts
}
