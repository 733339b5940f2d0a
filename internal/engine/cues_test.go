package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCueTable_CoversRoutedCapabilities(t *testing.T) {
	table := DefaultCueTable()

	assert.NotEmpty(t, table[CapabilityCalendar])
	assert.NotEmpty(t, table[CapabilityKnowledgeRetrieval])
	assert.NotEmpty(t, table[CapabilityCardExtraction])
	// General conversation is the default route, it needs no cues.
	assert.Empty(t, table[CapabilityGeneralConversation])
}

func TestLoadCueTable_EmptyPathReturnsDefaults(t *testing.T) {
	table, err := LoadCueTable("")

	require.NoError(t, err)
	assert.Equal(t, DefaultCueTable(), table)
}

func TestLoadCueTable_OverridesAndLowercases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cues.yaml")
	content := "calendar:\n  - \" Standup \"\n  - Huddle\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := LoadCueTable(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"standup", "huddle"}, table[CapabilityCalendar])
	// Untouched capabilities keep their defaults.
	assert.Equal(t, DefaultCueTable()[CapabilityKnowledgeRetrieval], table[CapabilityKnowledgeRetrieval])
}

func TestLoadCueTable_UnknownCapabilityFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cues.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weather:\n  - forecast\n"), 0o600))

	_, err := LoadCueTable(path)

	assert.ErrorContains(t, err, "unknown capability")
}

func TestLoadCueTable_MissingFileFails(t *testing.T) {
	_, err := LoadCueTable(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadCueTable_MalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cues.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calendar: [unclosed"), 0o600))

	_, err := LoadCueTable(path)
	assert.Error(t, err)
}
