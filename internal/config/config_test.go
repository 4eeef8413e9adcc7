package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Port != 8100 || c.Seed != 42 || c.TicksPerDay != 60 {
		t.Fatalf("defaults = %+v", c)
	}
	opts := c.GameOptions()
	if !opts.StartDate.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", opts.StartDate)
	}
	if opts.InitialCash != 100000 || opts.BaseInterval != time.Second {
		t.Fatalf("options = %+v", opts)
	}
}

func TestParseFlags(t *testing.T) {
	c, err := Parse([]string{"-port", "9000", "-seed", "7", "-tick-interval", "250ms", "-resume=false"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Port != 9000 || c.Seed != 7 || c.TickInterval != 250*time.Millisecond || c.Resume {
		t.Fatalf("config = %+v", c)
	}
}

func TestParseFilePrecedence(t *testing.T) {
	path := writeTempFile(t, `
port: 9100
seed: 99
initial_cash: 5000
start_date: "2024-02-01"
tick_interval: 500ms
draw_schedule: "0 0 * * 1"
`)
	t.Setenv("GAME_SEED", "123")

	c, err := Parse([]string{"-config", path, "-initial-cash", "7500"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Port != 9100 {
		t.Errorf("Port = %d, want 9100 from file", c.Port)
	}
	if c.Seed != 123 {
		t.Errorf("Seed = %d, want 123 from env over file", c.Seed)
	}
	if c.InitialCash != 7500 {
		t.Errorf("InitialCash = %f, want 7500 from flag", c.InitialCash)
	}
	if c.TickInterval != 500*time.Millisecond {
		t.Errorf("TickInterval = %v, want 500ms", c.TickInterval)
	}
	if c.StartDate != "2024-02-01" || c.DrawSchedule != "0 0 * * 1" {
		t.Errorf("game section = %s / %s", c.StartDate, c.DrawSchedule)
	}
}

func TestParseConfigFromEnv(t *testing.T) {
	path := writeTempFile(t, "save_name: slot_a\n")
	t.Setenv("GAME_CONFIG", path)
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.SaveName != "slot_a" {
		t.Fatalf("SaveName = %q", c.SaveName)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"bad port", []string{"-port", "0"}},
		{"bad date", []string{"-start-date", "01/02/2023"}},
		{"bad draw schedule", []string{"-draw-schedule", "sometimes"}},
		{"bad autosave", []string{"-autosave", "* *"}},
		{"bad save name", []string{"-save-name", "../x"}},
		{"zero ticks", []string{"-ticks-per-day", "0"}},
		{"missing file", []string{"-config", "/nonexistent/game.yaml"}},
		{"unknown flag", []string{"-nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.args); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestAutosaveDisabled(t *testing.T) {
	c, err := Parse([]string{"-autosave="})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.AutosaveCron != "" {
		t.Fatalf("AutosaveCron = %q", c.AutosaveCron)
	}
}

func TestConfigArg(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"-config", "a.yaml"}, "a.yaml"},
		{[]string{"--config=b.yaml"}, "b.yaml"},
		{[]string{"-port", "1", "-config=c.yaml"}, "c.yaml"},
		{[]string{"config", "d.yaml"}, ""},
		{nil, ""},
	}
	for _, c := range cases {
		if got := configArg(c.args); got != c.want {
			t.Errorf("configArg(%v) = %q, want %q", c.args, got, c.want)
		}
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_FLOAT", "1.5")
	t.Setenv("X_BAD", "abc")
	t.Setenv("X_DUR", "2s")
	if got := envFloat("X_FLOAT", 0); got != 1.5 {
		t.Errorf("envFloat = %v", got)
	}
	if got := envInt("X_BAD", 3); got != 3 {
		t.Errorf("envInt fallback = %v", got)
	}
	if got := envDuration("X_DUR", 0); got != 2*time.Second {
		t.Errorf("envDuration = %v", got)
	}
	if got := envBool("X_BAD", true); !got {
		t.Errorf("envBool fallback = %v", got)
	}
}
