package export

// Field is a labelled value printed above the table of a document.
type Field struct {
	Label string
	Value string
}

// Dataset defines tabular export content. Title and Fields are only rendered
// by formats that support a document header.
type Dataset struct {
	Title   string
	Fields  []Field
	Headers []string
	Rows    []map[string]string
}
