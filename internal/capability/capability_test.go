package capability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqui-ai/loqui/internal/engine"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	r.Register(engine.CapabilityCalendar, engine.AdapterFunc(
		func(context.Context, *engine.Turn) (string, error) { return "slots", nil }))

	adapter, ok := r.Adapter(engine.CapabilityCalendar)
	require.True(t, ok)

	out, err := adapter.Invoke(context.Background(), &engine.Turn{})
	require.NoError(t, err)
	assert.Equal(t, "slots", out)
}

func TestRegistry_UnknownCapability(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Adapter(engine.CapabilityCardExtraction)
	assert.False(t, ok)
}

func TestRegistry_ReplacesExisting(t *testing.T) {
	r := NewRegistry()
	r.Register(engine.CapabilityCalendar, engine.AdapterFunc(
		func(context.Context, *engine.Turn) (string, error) { return "old", nil }))
	r.Register(engine.CapabilityCalendar, engine.AdapterFunc(
		func(context.Context, *engine.Turn) (string, error) { return "new", nil }))

	adapter, ok := r.Adapter(engine.CapabilityCalendar)
	require.True(t, ok)
	out, err := adapter.Invoke(context.Background(), &engine.Turn{})
	require.NoError(t, err)
	assert.Equal(t, "new", out)
}

func TestRegistry_IDs(t *testing.T) {
	r := NewRegistry()
	r.Register(engine.CapabilityCalendar, engine.AdapterFunc(
		func(context.Context, *engine.Turn) (string, error) { return "", nil }))
	r.Register(engine.CapabilityGeneralConversation, engine.AdapterFunc(
		func(context.Context, *engine.Turn) (string, error) { return "", nil }))

	assert.ElementsMatch(t,
		[]engine.CapabilityID{engine.CapabilityCalendar, engine.CapabilityGeneralConversation},
		r.IDs())
}
