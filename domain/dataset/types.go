package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"attritionboard/domain/core"
)

// Kind is the semantic type inferred for a column.
type Kind string

const (
	KindCategorical Kind = "categorical"
	KindNumerical   Kind = "numerical"
)

// naTokens mirrors the cell spellings pandas reads as missing.
var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"NULL": {}, "null": {}, "None": {}, "<NA>": {}, "#N/A": {}, "#NA": {}, "#N/A N/A": {},
	"-1.#IND": {}, "-1.#QNAN": {}, "1.#IND": {}, "1.#QNAN": {},
}

// IsNullToken reports whether a raw cell denotes a missing value.
func IsNullToken(raw string) bool {
	_, ok := naTokens[strings.TrimSpace(raw)]
	return ok
}

// Value is a single cell.
type Value struct {
	Raw  string `json:"raw"`
	Null bool   `json:"null"`
}

// Column holds one named column. Numerical columns also carry parsed floats.
type Column struct {
	Name    string
	Kind    Kind
	Integer bool

	raw   []string
	null  []bool
	nums  []float64
	valid int
}

// Len returns the number of rows in the column.
func (c *Column) Len() int { return len(c.raw) }

// IsNull reports whether row i is missing.
func (c *Column) IsNull(i int) bool { return c.null[i] }

// String returns the trimmed text of row i ("" when null).
func (c *Column) String(i int) string {
	if c.null[i] {
		return ""
	}
	return c.raw[i]
}

// Float returns the numeric value of row i. ok is false for null cells and
// for categorical columns.
func (c *Column) Float(i int) (float64, bool) {
	if c.Kind != KindNumerical || c.null[i] {
		return 0, false
	}
	return c.nums[i], true
}

// NonNullCount returns the number of non-missing cells.
func (c *Column) NonNullCount() int { return c.valid }

// Floats returns the non-null numeric values in row order.
func (c *Column) Floats() []float64 {
	if c.Kind != KindNumerical {
		return nil
	}
	out := make([]float64, 0, c.valid)
	for i, v := range c.nums {
		if !c.null[i] {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is an immutable in-memory table. Every transformation returns a
// derived copy.
type Dataset struct {
	source  string
	hash    core.Hash
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a Dataset from a header and string records, inferring each
// column's kind. Short records are padded with nulls; extra cells are an error.
func New(source string, header []string, records [][]string) (*Dataset, error) {
	ds := &Dataset{
		source: source,
		index:  make(map[string]int, len(header)),
		rows:   len(records),
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := ds.index[name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		ds.index[name] = i
		ds.columns = append(ds.columns, &Column{
			Name: name,
			raw:  make([]string, len(records)),
			null: make([]bool, len(records)),
		})
	}

	for r, rec := range records {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(rec), len(header))
		}
		for c, col := range ds.columns {
			if c >= len(rec) {
				col.null[r] = true
				continue
			}
			cell := strings.TrimSpace(rec[c])
			col.raw[r] = cell
			col.null[r] = IsNullToken(cell)
		}
	}

	for _, col := range ds.columns {
		col.infer()
	}
	return ds, nil
}

// infer decides the column kind: numerical when every non-null cell parses as
// a finite float, which includes all-null columns.
func (c *Column) infer() {
	nums := make([]float64, len(c.raw))
	integer := true
	valid := 0
	for i, cell := range c.raw {
		if c.null[i] {
			integer = false
			continue
		}
		valid++
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			c.Kind = KindCategorical
			c.valid = c.countValid()
			return
		}
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			integer = false
		}
		nums[i] = f
	}
	c.Kind = KindNumerical
	c.Integer = integer && valid > 0
	c.nums = nums
	c.valid = valid
}

func (c *Column) countValid() int {
	n := 0
	for _, isNull := range c.null {
		if !isNull {
			n++
		}
	}
	return n
}

// WithHash returns a copy of the dataset tagged with a content fingerprint.
func (d *Dataset) WithHash(h core.Hash) *Dataset {
	cp := *d
	cp.hash = h
	return &cp
}

// Source returns where the dataset was loaded from.
func (d *Dataset) Source() string { return d.source }

// Hash returns the content fingerprint of the source bytes, if known.
func (d *Dataset) Hash() core.Hash { return d.hash }

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.rows }

// Columns returns the columns in dataset order.
func (d *Dataset) Columns() []*Column { return d.columns }

// ColumnNames returns the column names in dataset order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// Row returns the cells of row i in column order.
func (d *Dataset) Row(i int) []Value {
	out := make([]Value, len(d.columns))
	for c, col := range d.columns {
		out[c] = Value{Raw: col.String(i), Null: col.null[i]}
	}
	return out
}

// DropColumn returns a copy without the column at position idx.
func (d *Dataset) DropColumn(idx int) *Dataset {
	if idx < 0 || idx >= len(d.columns) {
		return d
	}
	cols := make([]*Column, 0, len(d.columns)-1)
	cols = append(cols, d.columns[:idx]...)
	cols = append(cols, d.columns[idx+1:]...)
	return d.withColumns(cols, d.rows)
}

// Subset returns a derived dataset holding the given rows, in the given order.
func (d *Dataset) Subset(rows []int) *Dataset {
	cols := make([]*Column, len(d.columns))
	for c, col := range d.columns {
		sub := &Column{
			Name:    col.Name,
			Kind:    col.Kind,
			Integer: col.Integer,
			raw:     make([]string, len(rows)),
			null:    make([]bool, len(rows)),
		}
		if col.nums != nil {
			sub.nums = make([]float64, len(rows))
		}
		for j, r := range rows {
			sub.raw[j] = col.raw[r]
			sub.null[j] = col.null[r]
			if col.nums != nil {
				sub.nums[j] = col.nums[r]
			}
			if !col.null[r] {
				sub.valid++
			}
		}
		cols[c] = sub
	}
	return d.withColumns(cols, len(rows))
}

// Head returns the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n < 0 {
		n = 0
	}
	if n > d.rows {
		n = d.rows
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return d.Subset(rows)
}

// DropAllNullRows removes rows in which every cell is missing.
func (d *Dataset) DropAllNullRows() *Dataset {
	keep := make([]int, 0, d.rows)
	for r := 0; r < d.rows; r++ {
		for _, col := range d.columns {
			if !col.null[r] {
				keep = append(keep, r)
				break
			}
		}
	}
	if len(keep) == d.rows {
		return d
	}
	return d.Subset(keep)
}

// Records returns the rows as strings, nulls rendered empty.
func (d *Dataset) Records() [][]string {
	out := make([][]string, d.rows)
	for r := range out {
		rec := make([]string, len(d.columns))
		for c, col := range d.columns {
			rec[c] = col.String(r)
		}
		out[r] = rec
	}
	return out
}

func (d *Dataset) withColumns(cols []*Column, rows int) *Dataset {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c.Name] = i
	}
	return &Dataset{source: d.source, hash: d.hash, columns: cols, index: idx, rows: rows}
}

// Selection is the pair of columns the user currently looks at.
type Selection struct {
	Categorical string `json:"categorical" form:"categorical"`
	Numerical   string `json:"numerical" form:"numerical"`
}
