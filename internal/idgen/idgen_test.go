package idgen

import (
	"strings"
	"testing"
)

func TestGenerate_Prefix(t *testing.T) {
	for _, prefix := range []string{AgentPrefix, BoardPrefix, GatewayPrefix, TaskPrefix} {
		id, err := Generate(prefix)
		if err != nil {
			t.Fatalf("Generate(%q) error: %v", prefix, err)
		}
		if !strings.HasPrefix(id, prefix) {
			t.Errorf("Generate(%q) = %q, missing prefix", prefix, id)
		}
		if len(id) != len(prefix)+Length {
			t.Errorf("Generate(%q) = %q, want length %d", prefix, id, len(prefix)+Length)
		}
	}
}

func TestGenerate_Alphabet(t *testing.T) {
	id, err := Generate(AgentPrefix)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	for _, r := range strings.TrimPrefix(id, AgentPrefix) {
		if !strings.ContainsRune(Alphabet, r) {
			t.Errorf("Generate produced character %q outside alphabet", r)
		}
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := Generate(TaskPrefix)
		if err != nil {
			t.Fatalf("Generate error: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
