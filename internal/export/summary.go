package export

import (
	"fmt"
	"io"
	"time"

	"StudyBoard/internal/state"
)

// WriteSummary writes a plain text listing of strokes.
func WriteSummary(w io.Writer, name string, strokes []state.Stroke) error {
	if _, err := fmt.Fprintf(w, "%s\n================\n\n", name); err != nil {
		return err
	}
	fmt.Fprintf(w, "Total strokes: %d\n\n", len(strokes))

	for i, s := range strokes {
		fmt.Fprintf(w, "Stroke %d:\n", i+1)
		fmt.Fprintf(w, "  Tool: %s\n", s.Type)
		fmt.Fprintf(w, "  Page: %d\n", s.Page)
		fmt.Fprintf(w, "  Points: %d\n", len(s.Points))
		fmt.Fprintf(w, "  Color: %s\n", s.Color)
		fmt.Fprintf(w, "  Width: %g\n", s.Width)
		if !s.CreatedAt.IsZero() {
			fmt.Fprintf(w, "  Time: %s\n", s.CreatedAt.Format(time.DateTime))
		}
		if len(s.Points) > 0 {
			first, last := s.Points[0], s.Points[len(s.Points)-1]
			fmt.Fprintf(w, "  Start: (%.2f, %.2f)\n", first.X, first.Y)
			fmt.Fprintf(w, "  End: (%.2f, %.2f)\n", last.X, last.Y)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
