package pipeline

// Table is a raw tabular artifact as loaded from disk: a header and string
// cells. Column aliases are resolved once, by the stage that ingests it.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Pick returns the first candidate present in the header and its index.
func (t *Table) Pick(candidates ...string) (string, int, bool) {
	for _, c := range candidates {
		for i, col := range t.Columns {
			if col == c {
				return c, i, true
			}
		}
	}
	return "", -1, false
}

// Require resolves a column from its candidates or returns a *SchemaError.
func (t *Table) Require(candidates ...string) (int, error) {
	_, idx, ok := t.Pick(candidates...)
	if !ok {
		return -1, &SchemaError{Table: t.Name, Missing: candidates, Present: t.Columns}
	}
	return idx, nil
}

// Cell returns row[idx], or "" when the row is short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
