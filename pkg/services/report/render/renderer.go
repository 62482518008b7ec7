package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/ct-tools/cloudscope/pkg/models/domain"
)

// Renderer serializes a generated report body into one output format.
type Renderer interface {
	Format() domain.ReportFormat
	Render(report *domain.Report) ([]byte, error)
}

// Registry returns all renderers keyed by format.
func Registry() map[domain.ReportFormat]Renderer {
	renderers := []Renderer{
		NewJSON(),
		NewCSV(),
		NewPDF(),
	}

	out := make(map[domain.ReportFormat]Renderer, len(renderers))
	for _, r := range renderers {
		out[r.Format()] = r
	}
	return out
}

// FileName builds the artifact name for a rendered report,
// "<account>-<dd-mm-yyyy>.<ext>". Account names are sanitized so the
// result is safe as a path segment.
func FileName(account string, at time.Time, format domain.ReportFormat) string {
	return fmt.Sprintf("%s-%s.%s", sanitize(account), at.Format("02-01-2006"), format)
}

func sanitize(name string) string {
	if name == "" {
		return "report"
	}
	mapper := func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}
	return strings.Map(mapper, name)
}
