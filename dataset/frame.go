package dataset

// Frame is an immutable table of string cells with normalized column names.
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewFrame normalizes the column names and takes ownership of rows.
// Short rows are treated as having missing trailing cells.
func NewFrame(columns []string, rows [][]string) *Frame {
	f := &Frame{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		rows:    rows,
	}
	for i, c := range columns {
		name := NormalizeColumnName(c)
		f.columns[i] = name
		if _, dup := f.index[name]; !dup {
			f.index[name] = i
		}
	}
	return f
}

func (f *Frame) Len() int { return len(f.rows) }

func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

func (f *Frame) Has(col string) bool {
	_, ok := f.index[col]
	return ok
}

// Value returns the raw cell at row i, or "" when the column is absent.
func (f *Frame) Value(i int, col string) string {
	j, ok := f.index[col]
	if !ok || j >= len(f.rows[i]) {
		return ""
	}
	return f.rows[i][j]
}

// Column returns a copy of every value of col, or nil when absent.
func (f *Frame) Column(col string) []string {
	if !f.Has(col) {
		return nil
	}
	out := make([]string, len(f.rows))
	for i := range f.rows {
		out[i] = f.Value(i, col)
	}
	return out
}

// Filter returns a frame sharing row storage with only the rows keep accepts.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	out := &Frame{columns: f.columns, index: f.index}
	for i, r := range f.rows {
		if keep(i) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}
