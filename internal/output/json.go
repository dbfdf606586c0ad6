package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON serializes a Report as indented JSON to w. Unlike the
// teacher's file-writing WriteJSON, this never touches disk: the
// specification's non-goals explicitly exclude persisting findings, so
// structured output is a stdout-only presentation mode, not storage.
func WriteJSON(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("output: encode JSON: %w", err)
	}
	return nil
}
