package ingest

// Field is one named cell of a parsed row.
type Field struct {
	Name  string
	Value string
}

// Row preserves the declared column order of the source file. Order matters:
// period resolution takes the first matching field, so rows are slices rather
// than maps.
type Row []Field

// Get returns the value of the first field with the given name.
func (r Row) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// ParsedDataset is the container handed to normalization: parsed rows plus
// parser-specific metadata (columns, worksheet, page count, encoding).
type ParsedDataset struct {
	Rows     []Row
	Metadata map[string]any
}

// RowCount reports the number of parsed rows.
func (d ParsedDataset) RowCount() int { return len(d.Rows) }
