package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapters maps capability ids straight to adapter funcs.
type stubAdapters map[CapabilityID]AdapterFunc

func (s stubAdapters) Adapter(id CapabilityID) (Adapter, bool) {
	f, ok := s[id]
	return f, ok
}

func okAdapter(payload string) AdapterFunc {
	return func(context.Context, *Turn) (string, error) { return payload, nil }
}

func failAdapter(err error) AdapterFunc {
	return func(context.Context, *Turn) (string, error) { return "", err }
}

func TestDispatcher_SinglePlan(t *testing.T) {
	d := NewDispatcher(stubAdapters{
		CapabilityGeneralConversation: okAdapter("hi there"),
	}, time.Second)

	plan := ExecutionPlan{Mode: ModeSingle, Capabilities: []CapabilityID{CapabilityGeneralConversation}}
	results, err := d.Dispatch(context.Background(), plan, &Turn{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusOK, results[0].Status)
	assert.Equal(t, "hi there", results[0].Payload)
}

func TestDispatcher_ParallelPreservesPlanOrder(t *testing.T) {
	// The first planned capability finishes last; its slot must still come first.
	d := NewDispatcher(stubAdapters{
		CapabilityCalendar: func(context.Context, *Turn) (string, error) {
			time.Sleep(50 * time.Millisecond)
			return "slots", nil
		},
		CapabilityKnowledgeRetrieval: okAdapter("facts"),
	}, time.Second)

	plan := ExecutionPlan{
		Mode:         ModeParallel,
		Capabilities: []CapabilityID{CapabilityCalendar, CapabilityKnowledgeRetrieval},
	}
	results, err := d.Dispatch(context.Background(), plan, &Turn{})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, CapabilityCalendar, results[0].Capability)
	assert.Equal(t, "slots", results[0].Payload)
	assert.Equal(t, CapabilityKnowledgeRetrieval, results[1].Capability)
	assert.Equal(t, "facts", results[1].Payload)
}

func TestDispatcher_FailureDoesNotAffectSiblings(t *testing.T) {
	d := NewDispatcher(stubAdapters{
		CapabilityCalendar:           failAdapter(errors.New("calendar api down")),
		CapabilityKnowledgeRetrieval: okAdapter("facts"),
	}, time.Second)

	plan := ExecutionPlan{
		Mode:         ModeParallel,
		Capabilities: []CapabilityID{CapabilityCalendar, CapabilityKnowledgeRetrieval},
	}
	results, err := d.Dispatch(context.Background(), plan, &Turn{})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, StatusOK, results[1].Status)
}

func TestDispatcher_TimeoutSettlesAsTimedOut(t *testing.T) {
	d := NewDispatcher(stubAdapters{
		CapabilityCalendar: func(ctx context.Context, _ *Turn) (string, error) {
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
			return "too late", nil
		},
		CapabilityGeneralConversation: okAdapter("hi"),
	}, 20*time.Millisecond)

	plan := ExecutionPlan{
		Mode:         ModeParallel,
		Capabilities: []CapabilityID{CapabilityCalendar, CapabilityGeneralConversation},
	}
	results, err := d.Dispatch(context.Background(), plan, &Turn{})

	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, results[0].Status)
	assert.Empty(t, results[0].Payload)
	assert.Equal(t, StatusOK, results[1].Status)
}

func TestDispatcher_PanicSettlesAsFailed(t *testing.T) {
	d := NewDispatcher(stubAdapters{
		CapabilityCardExtraction: func(context.Context, *Turn) (string, error) {
			panic("bad image decode")
		},
		CapabilityGeneralConversation: okAdapter("hi"),
	}, time.Second)

	plan := ExecutionPlan{
		Mode:         ModeParallel,
		Capabilities: []CapabilityID{CapabilityCardExtraction, CapabilityGeneralConversation},
	}
	results, err := d.Dispatch(context.Background(), plan, &Turn{})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, StatusOK, results[1].Status)
}

func TestDispatcher_UnknownCapabilityFails(t *testing.T) {
	d := NewDispatcher(stubAdapters{}, time.Second)

	plan := ExecutionPlan{Mode: ModeSingle, Capabilities: []CapabilityID{CapabilityCalendar}}
	results, err := d.Dispatch(context.Background(), plan, &Turn{})

	assert.ErrorIs(t, err, ErrAllCapabilitiesFailed)
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
}

func TestDispatcher_AllFailedReturnsError(t *testing.T) {
	d := NewDispatcher(stubAdapters{
		CapabilityCalendar:           failAdapter(errors.New("down")),
		CapabilityKnowledgeRetrieval: failAdapter(errors.New("also down")),
	}, time.Second)

	plan := ExecutionPlan{
		Mode:         ModeParallel,
		Capabilities: []CapabilityID{CapabilityCalendar, CapabilityKnowledgeRetrieval},
	}
	results, err := d.Dispatch(context.Background(), plan, &Turn{})

	assert.ErrorIs(t, err, ErrAllCapabilitiesFailed)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, StatusFailed, r.Status)
	}
}
