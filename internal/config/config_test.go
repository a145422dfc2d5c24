package config

import (
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.BrickSize != 50 {
		t.Errorf("Expected default brick size 50, got %d", cfg.BrickSize)
	}
	if cfg.BrickPath != "brick.jpg" {
		t.Errorf("Expected default brick path 'brick.jpg', got '%s'", cfg.BrickPath)
	}
	if cfg.Optimizer != OptimizerBuiltin {
		t.Errorf("Expected default optimizer '%s', got '%s'", OptimizerBuiltin, cfg.Optimizer)
	}
}

func TestWithEnv(t *testing.T) {
	t.Setenv(EnvBrickPath, "/assets/brick.png")
	t.Setenv(EnvBrickSize, "24")
	t.Setenv(EnvWorkers, "4")
	t.Setenv(EnvOptimizer, "oxipng")

	cfg, err := Default().WithEnv()
	if err != nil {
		t.Fatalf("WithEnv() error = %v", err)
	}

	if cfg.BrickPath != "/assets/brick.png" {
		t.Errorf("Expected brick path from env, got '%s'", cfg.BrickPath)
	}
	if cfg.BrickSize != 24 {
		t.Errorf("Expected brick size 24 from env, got %d", cfg.BrickSize)
	}
	if cfg.Workers != 4 {
		t.Errorf("Expected 4 workers from env, got %d", cfg.Workers)
	}
	if cfg.Optimizer != "oxipng" {
		t.Errorf("Expected optimizer 'oxipng' from env, got '%s'", cfg.Optimizer)
	}
}

func TestWithEnvInvalidNumber(t *testing.T) {
	t.Setenv(EnvBrickSize, "large")

	if _, err := Default().WithEnv(); err == nil {
		t.Error("Expected error for non-numeric brick size")
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.SourcePath = "photo.jpg"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults with source", mutate: func(*Config) {}},
		{name: "minimum brick size", mutate: func(c *Config) { c.BrickSize = MinBrickSize }},
		{name: "missing source", mutate: func(c *Config) { c.SourcePath = "" }, wantErr: true},
		{name: "missing brick", mutate: func(c *Config) { c.BrickPath = "" }, wantErr: true},
		{name: "brick size two", mutate: func(c *Config) { c.BrickSize = 2 }, wantErr: true},
		{name: "brick size one", mutate: func(c *Config) { c.BrickSize = 1 }, wantErr: true},
		{name: "brick size zero", mutate: func(c *Config) { c.BrickSize = 0 }, wantErr: true},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }, wantErr: true},
		{name: "blank optimizer", mutate: func(c *Config) { c.Optimizer = " " }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
