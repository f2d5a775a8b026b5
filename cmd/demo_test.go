package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopherdes/smplkernel/config"
)

func TestApplyConfig_OverridesSeedTraceAndInitialEvent(t *testing.T) {
	// GIVEN a demoModel with flag defaults and a config naming a
	// different seed, trace setting, and initial event
	m := &demoModel{
		horizon:          100,
		arrivalRate:      1,
		serviceRate:      1,
		servers:          1,
		trace:            false,
		initialEventCode: eventGenerate,
	}
	cfg := &config.ModelConfig{
		Name:    "cfg-demo",
		Horizon: 500,
		Seed:    5,
		Trace:   true,
		Facilities: []config.FacilityConfig{
			{Name: "server", Servers: 3},
		},
		InitialEvent: config.InitialEventConfig{
			EventCode: int(eventArrival),
			Delay:     2,
		},
	}

	// WHEN the config is applied
	m.applyConfig(cfg)

	// THEN every config field takes effect, not just horizon/servers
	if m.horizon != 500 {
		t.Fatalf("horizon: got %v, want 500", m.horizon)
	}
	if m.servers != 3 {
		t.Fatalf("servers: got %d, want 3", m.servers)
	}
	if !m.trace {
		t.Fatalf("trace: expected config's trace=true to take effect")
	}
	if m.seed != 5 {
		t.Fatalf("seed: got %d, want 5", m.seed)
	}
	if m.initialEventCode != eventArrival {
		t.Fatalf("initialEventCode: got %v, want eventArrival", m.initialEventCode)
	}
	if m.initialEventDelay != 2 {
		t.Fatalf("initialEventDelay: got %v, want 2", m.initialEventDelay)
	}
}

func TestApplyConfig_KeepsDefaultInitialEventWhenConfigOmitsIt(t *testing.T) {
	// GIVEN a config with no initial_event section
	m := &demoModel{initialEventCode: eventGenerate, initialEventDelay: 0}
	cfg := &config.ModelConfig{Name: "x", Horizon: 10}

	// WHEN applied
	m.applyConfig(cfg)

	// THEN the flag-driven default initial event is left untouched
	if m.initialEventCode != eventGenerate {
		t.Fatalf("initialEventCode: got %v, want eventGenerate (default preserved)", m.initialEventCode)
	}
}

func runToFile(t *testing.T, m *demoModel) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create report file: %v", err)
	}
	defer f.Close()
	if err := m.run(f); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report file: %v", err)
	}
	return string(data)
}

func TestRun_HonorsConfigSeedForReproducibility(t *testing.T) {
	// GIVEN a config file pinning an explicit RNG seed stream
	path := filepath.Join(t.TempDir(), "model.yaml")
	body := `
name: demo
horizon: 50
seed: 4
facilities:
  - name: server
    servers: 1
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	newModel := func() *demoModel {
		m := &demoModel{
			horizon:          10,
			arrivalRate:      0.8,
			serviceRate:      1.0,
			servers:          1,
			initialEventCode: eventGenerate,
		}
		m.applyConfig(cfg)
		return m
	}

	// WHEN run twice from the same pinned seed
	out1 := runToFile(t, newModel())
	out2 := runToFile(t, newModel())

	// THEN the reports are identical: a run from a pinned seed stream is
	// reproducible
	if out1 != out2 {
		t.Fatalf("expected identical reports under a pinned seed, got:\n%s\n---\n%s", out1, out2)
	}
}
