package profiling

import (
	"attritionboard/domain/dataset"
)

// ColumnProfile is the per-column view of the schema.
type ColumnProfile struct {
	Name     string       `json:"name"`
	Kind     dataset.Kind `json:"kind"`
	Integer  bool         `json:"integer,omitempty"`
	NonNull  int          `json:"non_null"`
	Nulls    int          `json:"nulls"`
	Distinct int          `json:"distinct"`
}

// Schema partitions the dataset's columns by kind.
// INVARIANTS:
// - Categorical and Numerical keep dataset column order
// - NumCategorical + NumNumerical == number of columns
type Schema struct {
	Categorical     []string        `json:"categorical"`
	Numerical       []string        `json:"numerical"`
	NumCategorical  int             `json:"num_categorical"`
	NumNumerical    int             `json:"num_numerical"`
	Response        string          `json:"response"`
	ResponsePresent bool            `json:"response_present"`
	Columns         []ColumnProfile `json:"columns"`
}

// Classify partitions ds into categorical and numerical columns and reports
// whether the response column is present. An empty dataset yields zero counts.
func Classify(ds *dataset.Dataset, response string) *Schema {
	s := &Schema{
		Categorical: []string{},
		Numerical:   []string{},
		Response:    response,
	}
	if ds == nil {
		return s
	}

	for _, col := range ds.Columns() {
		switch col.Kind {
		case dataset.KindNumerical:
			s.Numerical = append(s.Numerical, col.Name)
		default:
			s.Categorical = append(s.Categorical, col.Name)
		}
		if col.Name == response {
			s.ResponsePresent = true
		}
		s.Columns = append(s.Columns, profileColumn(col))
	}
	s.NumCategorical = len(s.Categorical)
	s.NumNumerical = len(s.Numerical)
	return s
}

// Has reports whether name is in the given partition.
func (s *Schema) Has(kind dataset.Kind, name string) bool {
	list := s.Categorical
	if kind == dataset.KindNumerical {
		list = s.Numerical
	}
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

func profileColumn(col *dataset.Column) ColumnProfile {
	distinct := make(map[string]struct{})
	for i := 0; i < col.Len(); i++ {
		if !col.IsNull(i) {
			distinct[col.String(i)] = struct{}{}
		}
	}
	return ColumnProfile{
		Name:     col.Name,
		Kind:     col.Kind,
		Integer:  col.Integer,
		NonNull:  col.NonNullCount(),
		Nulls:    col.Len() - col.NonNullCount(),
		Distinct: len(distinct),
	}
}
