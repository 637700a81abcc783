// Package briefing produces the codename and tagline attached to a new mission.
package briefing

import (
	"context"

	"star-task/internal/domain"
)

// Fallback is returned whenever a real briefing cannot be produced.
var Fallback = domain.Briefing{
	Codename: "Operation Starfall",
	Tagline:  "Failure is not an option in the void.",
}

// Provider turns a mission title into a briefing. RequestBriefing never fails:
// implementations return Fallback when anything goes wrong.
type Provider interface {
	RequestBriefing(ctx context.Context, title string) domain.Briefing
}

// Static always answers with Fallback. It is used when no API key is configured.
type Static struct{}

// RequestBriefing returns Fallback.
func (Static) RequestBriefing(context.Context, string) domain.Briefing {
	return Fallback
}
