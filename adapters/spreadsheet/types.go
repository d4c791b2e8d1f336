package spreadsheet

// RowData maps column headers to trimmed cell values for one row.
type RowData map[string]string

// TableData holds the parsed contents of an uploaded spreadsheet.
type TableData struct {
	Headers []string
	Rows    []RowData
}

// HasColumn reports whether the table carries a header with the given name.
func (t *TableData) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}
