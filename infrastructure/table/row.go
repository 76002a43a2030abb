package table

// Cell holds the state of one table cell. Which fields are meaningful depends on Kind.
type Cell struct {
	Kind    ColumnKind
	Text    string
	Checked bool
	URL     string
	Total   float64
}

// Row is an ordered list of cells matching the schema that built it.
type Row struct {
	Cells []Cell
}

func (r Row) clone() Row {
	cells := make([]Cell, len(r.Cells))
	copy(cells, r.Cells)
	return Row{Cells: cells}
}

// Picture returns the bound picture URL or an empty string.
func (r Row) Picture() string {
	for _, c := range r.Cells {
		if c.Kind == KindUpload {
			return c.URL
		}
	}
	return ""
}

// approved reports whether the row has a checked APPROVED toggle.
func (r Row) approved(s *Schema) bool {
	idx := s.ColumnByKey(KeyApproved)
	if idx < 0 || idx >= len(r.Cells) {
		return false
	}
	return r.Cells[idx].Checked
}
