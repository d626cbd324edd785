package registry

import (
	"testing"

	"github.com/sawpanic/marketsim/internal/config"
)

func TestGetKnownSources(t *testing.T) {
	cfg := config.Default()
	for _, src := range Sources() {
		cfg.Source = src
		a, err := Get(cfg)
		if err != nil {
			t.Fatalf("Get(%s) returned error: %v", src, err)
		}
		if a.Name() == "" {
			t.Errorf("adapter for %s has empty Name()", src)
		}
	}
}

func TestGetUnknownSource(t *testing.T) {
	cfg := config.Default()
	cfg.Source = config.Source("stooq")
	if _, err := Get(cfg); err == nil {
		t.Fatal("expected an error for an unsupported source")
	}
}
