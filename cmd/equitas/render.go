package main

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/equitas/internal/models"
	"github.com/ternarybob/equitas/internal/services/report"
)

// renderReport formats report as markdown, html or json
func renderReport(svc *report.Service, r *models.AnalysisReport, format string) ([]byte, error) {
	switch format {
	case "", "markdown", "md":
		return []byte(report.Markdown(*r)), nil
	case "html":
		return svc.ToHTML(*r)
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q (expected markdown, html or json)", format)
	}
}

func fileExtension(format string) string {
	switch format {
	case "html":
		return ".html"
	case "json":
		return ".json"
	default:
		return ".md"
	}
}
