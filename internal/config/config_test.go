package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

// testOptions mirrors the shape of the CLI options.
type testOptions struct {
	Config string `help:"Config file path"`

	AnimationsDir string   `toml:"paths.animations" env:"PATHS_ANIMATIONS"`
	StripPixels   int      `toml:"strip.pixels" env:"STRIP_PIXELS"`
	StripGamma    bool     `toml:"strip.gamma" env:"STRIP_GAMMA"`
	HTTPPort      string   `toml:"http.port" env:"HTTP_PORT"`
	Tags          []string `toml:"meta.tags" env:"META_TAGS"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

const sampleConfig = `
[paths]
animations = "/srv/canister/animations"

[strip]
pixels = 60
gamma = true

[http]
port = ":9000"

[meta]
tags = ["prop", "canister"]

[logging]
level = "debug"
format = "json"
file = "/var/log/canister.log"
playback = "warn"
connection = "error"

[aliases]
meltdown = "meltdown_v2"
testAnimation = ""
rainbow = "rainbow"
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeConfig(t, sampleConfig)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := testOptions{
		Config:        opts.Config,
		AnimationsDir: "/srv/canister/animations",
		StripPixels:   60,
		StripGamma:    true,
		HTTPPort:      ":9000",
		Tags:          []string{"prop", "canister"},
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("got %+v, want %+v", *opts, want)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("CANISTER_STRIP_PIXELS", "144")
	t.Setenv("CANISTER_META_TAGS", "a, b")
	t.Setenv("CANISTER_HTTP_PORT", ":7000")

	// HTTPPort was given on the command line and must survive env and file
	cmd := &cobra.Command{Use: "canister"}
	cmd.Flags().String("http-port", ":8090", "")
	if err := cmd.Flags().Set("http-port", ":1234"); err != nil {
		t.Fatal(err)
	}

	opts := &testOptions{Config: path, HTTPPort: ":1234"}
	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.StripPixels != 144 {
		t.Errorf("StripPixels = %d, want env value 144", opts.StripPixels)
	}
	if !reflect.DeepEqual(opts.Tags, []string{"a", "b"}) {
		t.Errorf("Tags = %v, want env value [a b]", opts.Tags)
	}
	if opts.HTTPPort != ":1234" {
		t.Errorf("HTTPPort = %q, want CLI value :1234", opts.HTTPPort)
	}
	if opts.AnimationsDir != "/srv/canister/animations" {
		t.Errorf("AnimationsDir = %q, want file value", opts.AnimationsDir)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"invalid toml", "[strip\npixels = ", nil},
		{"wrong type", "[strip]\npixels = \"many\"\n", nil},
		{"bad env int", "", map[string]string{"CANISTER_STRIP_PIXELS": "lots"}},
		{"bad env bool", "", map[string]string{"CANISTER_STRIP_GAMMA": "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts := &testOptions{Config: writeConfig(t, tt.content)}
			if err := LoadConfig(opts, nil); err == nil {
				t.Error("LoadConfig succeeded, want error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "nonexistent.toml"), StripPixels: 30}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
	if opts.StripPixels != 30 {
		t.Errorf("default overwritten: StripPixels = %d", opts.StripPixels)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":                    "port",
		"LoggingLevel":            "logging-level",
		"StripGpioPin":            "strip-gpio-pin",
		"HTTPPort":                "http-port",
		"HTTPEnabled":             "http-enabled",
		"IndicatorFollowPlayback": "indicator-follow-playback",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"strip": map[string]any{"pixels": int64(60)},
		"flat":  "x",
	}
	tests := []struct {
		path string
		want any
	}{
		{"strip.pixels", int64(60)},
		{"flat", "x"},
		{"strip.missing", nil},
		{"flat.deeper", nil},
		{"none.at.all", nil},
	}
	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.want {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	cfg := LoadLoggingConfig(writeConfig(t, sampleConfig))

	if cfg.Level != "debug" || cfg.Format != "json" || cfg.File != "/var/log/canister.log" {
		t.Errorf("got level=%q format=%q file=%q", cfg.Level, cfg.Format, cfg.File)
	}
	wantModules := map[string]string{"playback": "warn", "connection": "error"}
	if !reflect.DeepEqual(cfg.Modules, wantModules) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, wantModules)
	}

	if def := LoadLoggingConfig(""); def.Level != "info" || def.Format != "text" {
		t.Errorf("default config = %+v", def)
	}
}

func TestLoadAliases(t *testing.T) {
	defaults := map[string]string{"meltdown": "meltdown", "testAnimation": "test"}

	got, err := LoadAliases(writeConfig(t, sampleConfig), defaults)
	if err != nil {
		t.Fatalf("LoadAliases failed: %v", err)
	}
	want := map[string]string{"meltdown": "meltdown_v2", "rainbow": "rainbow"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadAliases = %v, want %v", got, want)
	}
	if defaults["meltdown"] != "meltdown" {
		t.Error("LoadAliases modified the defaults")
	}

	got, err = LoadAliases("", defaults)
	if err != nil || !reflect.DeepEqual(got, defaults) {
		t.Errorf("LoadAliases without file = %v, %v", got, err)
	}

	if _, err := LoadAliases(writeConfig(t, "[aliases]\nbad = 3\n"), defaults); err == nil {
		t.Error("LoadAliases accepted a non-string alias")
	}
}
