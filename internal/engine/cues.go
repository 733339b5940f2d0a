package engine

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CueTable maps capabilities to the lowercase cue words that select them.
// Tables are loaded once at startup and never mutated afterwards; the
// classifier only reads them.
type CueTable map[CapabilityID][]string

// DefaultCueTable returns the built-in cue sets. The word lists mirror the
// scheduling and product/technical vocabularies the assistant ships with,
// in both Traditional Chinese and English.
func DefaultCueTable() CueTable {
	return CueTable{
		CapabilityCalendar: {
			"會議", "行事曆", "空檔", "安排", "預約", "約定", "見面", "聚會",
			"演示", "簡報", "時間", "有空",
			"meeting", "schedule", "calendar", "appointment", "available",
			"availability", "book", "demo",
		},
		CapabilityKnowledgeRetrieval: {
			"產品", "功能", "規格", "技術", "服務", "方案", "價格", "費用",
			"金流", "物流", "串接", "設定", "教學", "文件", "庫存", "seo",
			"product", "feature", "pricing", "price", "plan", "spec",
			"integration", "documentation", "how to", "setup",
		},
		CapabilityCardExtraction: {
			"名片", "聯絡方式", "聯絡資訊",
			"business card", "contact info",
		},
	}
}

// LoadCueTable reads cue sets from a YAML file keyed by capability id,
// merging them over the defaults. An empty path returns the defaults
// unchanged; a missing or malformed file is an error so a bad deploy fails
// loudly instead of silently routing everything to general conversation.
func LoadCueTable(path string) (CueTable, error) {
	table := DefaultCueTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cue file: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing cue file %s: %w", path, err)
	}

	for key, words := range raw {
		id := CapabilityID(key)
		if !knownCapability(id) {
			return nil, fmt.Errorf("cue file %s: unknown capability %q", path, key)
		}
		lowered := make([]string, 0, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				lowered = append(lowered, w)
			}
		}
		table[id] = lowered
	}
	return table, nil
}

func knownCapability(id CapabilityID) bool {
	for _, c := range AllCapabilities {
		if c == id {
			return true
		}
	}
	return false
}
