// Package export renders archive manifests describing exported files.
package export

// Manifest defines tabular manifest content. Rows hold values in Headers order.
type Manifest struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Renderer turns a manifest into file bytes.
type Renderer interface {
	Render(m Manifest) ([]byte, error)
	Filename() string
}

// Manifest formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// NewRenderer returns the renderer for format, or nil when format is empty or unknown.
func NewRenderer(format string) Renderer {
	switch format {
	case FormatCSV:
		return NewCSVExporter()
	case FormatPDF:
		return NewPDFExporter()
	default:
		return nil
	}
}
