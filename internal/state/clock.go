package state

import (
	"time"

	"github.com/google/uuid"
)

// Now is swapped out by tests that need stable timestamps.
var Now = time.Now

// stamp gives a stroke its identity at commit time. The id is only used for
// persistence and the wire; ordering always comes from the log position.
func stamp(s *Stroke) {
	if s.ID == "" {
		s.ID = "stroke-" + uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = Now()
	}
}
