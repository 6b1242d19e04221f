package ingest

import (
	"fmt"

	"camels_monitor/pkg/core/catalog"
)

// Parser turns one downloaded artifact into a ParsedDataset.
type Parser interface {
	Parse(path string, source catalog.SourceDefinition) (ParsedDataset, error)
}

// ParserTable is the closed dispatch table from format tag to parser.
// Construct it once with DefaultParsers and pass it by reference; tests build
// their own instances.
type ParserTable map[string]Parser

// DefaultParsers returns the supported format set.
func DefaultParsers() ParserTable {
	return ParserTable{
		"csv":  csvParser{},
		"xlsx": xlsxParser{},
		"xls":  xlsxParser{},
		"html": htmlParser{},
		"pdf":  pdfParser{},
	}
}

// ParseFile dispatches on the format tag declared by the source.
func (t ParserTable) ParseFile(path string, source catalog.SourceDefinition) (ParsedDataset, error) {
	parser, ok := t[source.Format]
	if !ok {
		return ParsedDataset{}, fmt.Errorf("unsupported format %q for source %s", source.Format, source.ID)
	}
	return parser.Parse(path, source)
}
