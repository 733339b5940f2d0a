package telemetry

import (
	"log/slog"

	"github.com/loqui-ai/loqui/internal/engine"
)

// SlogSink writes one structured line per pipeline run. Degraded and failed
// runs log at warn and error so they stand out in aggregated logs.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Record(rec engine.RunRecord) {
	caps := make([]string, len(rec.Plan.Capabilities))
	for i, c := range rec.Plan.Capabilities {
		caps[i] = string(c)
	}

	attrs := []any{
		"conversation_id", rec.ConversationID,
		"plan_mode", string(rec.Plan.Mode),
		"capabilities", caps,
		"policy", string(rec.Policy),
		"state", string(rec.State),
	}
	for _, r := range rec.Results {
		attrs = append(attrs, "result_"+string(r.Capability), string(r.Status))
	}
	if rec.Cause != "" {
		attrs = append(attrs, "cause", rec.Cause)
	}

	switch rec.State {
	case engine.StateFailed:
		s.logger.Error("pipeline run failed", attrs...)
	case engine.StateDegraded:
		s.logger.Warn("pipeline run degraded", attrs...)
	default:
		s.logger.Info("pipeline run", attrs...)
	}
}
