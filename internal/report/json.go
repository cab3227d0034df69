package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rewired-gh/fantasy-insights/internal/analysis"
)

// WriteJSON writes the full report as indented JSON.
func WriteJSON(w io.Writer, rep *analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
