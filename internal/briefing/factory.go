package briefing

import (
	"context"

	"star-task/internal/config"
	"star-task/internal/logging"
)

// NewFromConfig picks the provider the configuration allows. Without an API key,
// or when the client cannot be built, the Static provider is used.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *logging.Logger) Provider {
	if !cfg.BriefingAvailable() {
		logger.Infof("briefings disabled or no API key; using fallback codenames")
		return Static{}
	}

	gen, err := NewGenaiGenerator(ctx, cfg.Briefing.APIKey, cfg.Briefing.Model)
	if err != nil {
		logger.Warnf("briefing client unavailable: %v", err)
		return Static{}
	}
	return NewGemini(gen, cfg.Briefing.Timeout, logger)
}
