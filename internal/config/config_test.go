package config

import "testing"

func TestValidateConfigRequiresCoreFields(t *testing.T) {
	cfg := &Config{}
	if err := ValidateConfig(cfg); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestValidateConfigFillsDefaults(t *testing.T) {
	cfg := &Config{
		Environment: "development",
		RPC:         RPCConfig{Endpoints: []string{"https://api.devnet.solana.com"}},
		Database:    DatabaseConfig{Host: "localhost", Database: "uho"},
		ControlPlane: ControlPlaneConfig{
			URLs:    []string{"nats://localhost:4222"},
			Subject: "uho.control",
		},
		Broadcast: BroadcastConfig{Channel: "uho_events"},
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RPC.Commitment != "confirmed" {
		t.Fatalf("expected default commitment, got %q", cfg.RPC.Commitment)
	}
	if cfg.Poller.CycleInterval != "2s" {
		t.Fatalf("expected default cycle interval, got %q", cfg.Poller.CycleInterval)
	}
	if cfg.Poller.InterProgramDelay != "100ms" {
		t.Fatalf("expected default inter-program delay, got %q", cfg.Poller.InterProgramDelay)
	}
}
