package db

import (
	"errors"
	"strconv"
)

// DistanceMetric used by vector similarity.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the indexing algorithm for vector fields.
type VectorAlgorithm string

const (
	// VectorHNSW uses the HNSW algorithm.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat uses brute force.
	VectorFlat VectorAlgorithm = "FLAT"
)

// IndexFieldType enumerates supported index field types.
type IndexFieldType int

const (
	// IndexFieldText is an analyzed full-text field.
	IndexFieldText IndexFieldType = iota
	// IndexFieldKeyword is matched as a whole value. Lists hold one value per element.
	IndexFieldKeyword
	// IndexFieldBoolean is a true/false flag.
	IndexFieldBoolean
	// IndexFieldVector is a dense vector.
	IndexFieldVector
)

// Autocomplete describes an edge n-gram sub-field for prefix matching.
type Autocomplete struct {
	SubField  string
	MinGram   int
	MaxGram   int
	Lowercase bool
}

// IndexField describes a single field in an index schema.
type IndexField struct {
	Name string
	Type IndexFieldType

	// TEXT options
	Autocomplete *Autocomplete

	// KEYWORD options
	Multi bool // list-valued

	// VECTOR options
	VectorAlgo     VectorAlgorithm
	VectorDim      int
	VectorDistance DistanceMetric
}

// IndexDefinition is a complete engine-neutral index definition.
type IndexDefinition struct {
	Name     string
	Prefixes []string // key prefixes, for engines that index a keyspace
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		seen[f.Name] = true

		if f.Type == IndexFieldVector && f.VectorDim <= 0 {
			return errors.New("vector field requires positive DIM")
		}
		if ac := f.Autocomplete; ac != nil {
			if ac.SubField == "" {
				return errors.New("autocomplete sub-field name is required for " + f.Name)
			}
			if ac.MinGram <= 0 || ac.MaxGram < ac.MinGram {
				return errors.New("invalid autocomplete gram range for " + f.Name)
			}
		}
	}

	return nil
}

// Field returns the named field.
func (idx *IndexDefinition) Field(name string) (IndexField, bool) {
	for i := range idx.Fields {
		if idx.Fields[i].Name == name {
			return idx.Fields[i], true
		}
	}
	return IndexField{}, false
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
