package discovery

import (
	"testing"

	"CompetitorScanner/internal/domain"
)

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(NewFollowingOverlap(newFakeSession(), nil))
	registry.Register(NewNativeMutual(newFakeSession(), nil))

	s, err := registry.Resolve(string(domain.MethodFollowingOverlap))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if s.Method() != domain.MethodFollowingOverlap {
		t.Fatalf("unexpected method: %s", s.Method())
	}

	if _, err := registry.Resolve("graph_oracle"); err == nil {
		t.Fatal("expected error for unregistered strategy")
	}
}
