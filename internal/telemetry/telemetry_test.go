package telemetry

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqui-ai/loqui/internal/engine"
)

type countingSink struct{ n int }

func (c *countingSink) Record(engine.RunRecord) { c.n++ }

func sampleRecord() engine.RunRecord {
	return engine.RunRecord{
		ConversationID: "c1",
		Plan: engine.ExecutionPlan{
			Mode:         engine.ModeParallel,
			Capabilities: []engine.CapabilityID{engine.CapabilityCalendar, engine.CapabilityKnowledgeRetrieval},
			Rationale:    "compound turn, 2 capabilities in parallel",
		},
		Results: []engine.CapabilityResult{
			{Capability: engine.CapabilityCalendar, Status: engine.StatusOK, Latency: 120 * time.Millisecond},
			{Capability: engine.CapabilityKnowledgeRetrieval, Status: engine.StatusTimedOut, Latency: 8 * time.Second},
		},
		Policy: engine.PolicyPrimaryWithContext,
		State:  engine.StateNormal,
	}
}

func TestMulti_FansOutToAllSinks(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := Multi{a, b}

	m.Record(sampleRecord())
	m.Record(sampleRecord())

	assert.Equal(t, 2, a.n)
	assert.Equal(t, 2, b.n)
}

func TestSlogSink_LevelsFollowState(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	rec := sampleRecord()
	sink.Record(rec)
	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), "conversation_id=c1")

	buf.Reset()
	rec.State = engine.StateDegraded
	rec.Cause = "all capabilities failed"
	sink.Record(rec)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "cause")

	buf.Reset()
	rec.State = engine.StateFailed
	sink.Record(rec)
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestToPipelineEvent(t *testing.T) {
	event := toPipelineEvent(sampleRecord())

	assert.Equal(t, "c1", event.ConversationID)
	assert.Equal(t, "parallel", event.PlanMode)
	assert.Equal(t, []string{"calendar", "knowledge_retrieval"}, event.Capabilities)
	require.Len(t, event.Results, 2)
	assert.Equal(t, "ok", event.Results[0].Status)
	assert.Equal(t, int64(120), event.Results[0].LatencyMS)
	assert.Equal(t, "timed_out", event.Results[1].Status)
	assert.Equal(t, "primary_with_context", event.Policy)
	assert.Equal(t, "normal", event.State)
	assert.False(t, event.Timestamp.IsZero())
}
