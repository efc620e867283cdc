package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
	"time"
)

const sample = `
[server]
port = 9000
expires = "1m"

[server.headers]
X-Frame-Options = "DENY"

[site]
name = "Plugin Docs"
baseurl = "https://docs.example.com"

[site.aliases]
latest = "main"

[source]
kind = "github"

[source.github]
owner = "acme"
repo = "docs"
dir = "docs"
branches = ["main", "next"]

[cache]
duration = "30s"

[jobs]
warm = "15m"
fetch = ""
`

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Error(err)
	}
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "docserve.toml")
	if err := os.WriteFile(p, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000 but got %d", cfg.Server.Port)
	}
	if cfg.Server.Headers["X-Frame-Options"] != "DENY" {
		t.Errorf("Expected header DENY but got %q", cfg.Server.Headers["X-Frame-Options"])
	}
	if cfg.Site.Aliases["latest"] != "main" || cfg.Site.DefaultVersion != "main" {
		t.Errorf("Unexpected site settings %+v", cfg.Site)
	}
	if cfg.Source.Kind != SourceGitHub || !slices.Equal(cfg.Source.GitHub.Branches, []string{"main", "next"}) {
		t.Errorf("Unexpected source settings %+v", cfg.Source)
	}
	if cfg.Cache.SizeInBytes != 32<<20 {
		t.Errorf("Expected default cache size but got %d", cfg.Cache.SizeInBytes)
	}

	durations := []struct {
		name string
		got  Duration
		want time.Duration
	}{
		{"server.expires", cfg.Server.Expires, time.Minute},
		{"server.readtimeout", cfg.Server.ReadTimeout, 10 * time.Second},
		{"cache.duration", cfg.Cache.Duration, 30 * time.Second},
		{"jobs.warm", cfg.Jobs.Warm, 15 * time.Minute},
		{"jobs.fetch", cfg.Jobs.Fetch, 0},
	}
	for _, d := range durations {
		if time.Duration(d.got) != d.want {
			t.Errorf("%s: expected %s but got %s", d.name, d.want, d.got)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	for _, p := range []string{filepath.Join(t.TempDir(), "nope.toml"), ""} {
		cfg, err := Load(p)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(cfg, Default()) {
			t.Errorf("Expected defaults for %q", p)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cfg := Default()
	for _, s := range []string{
		"[server]\nbogus = 1",
		"[server]\nexpires = \"soon\"",
		"not toml",
	} {
		if err := Parse([]byte(s), &cfg); err == nil {
			t.Errorf("Expected error parsing %q", s)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"port":          func(c *Config) { c.Server.Port = 70000 },
		"no version":    func(c *Config) { c.Site.DefaultVersion = "" },
		"relative url":  func(c *Config) { c.Site.BaseURL = "docs.example.com" },
		"self alias":    func(c *Config) { c.Site.Aliases = map[string]string{"main": "main"} },
		"alias chain":   func(c *Config) { c.Site.Aliases = map[string]string{"a": "b", "b": "main"} },
		"kind":          func(c *Config) { c.Source.Kind = "ftp" },
		"github":        func(c *Config) { c.Source.Kind = SourceGitHub },
		"git":           func(c *Config) { c.Source.Kind = SourceGit },
		"bucket":        func(c *Config) { c.Source.Kind = SourceBucket },
		"dir":           func(c *Config) { c.Source.Dir = "" },
		"engine":        func(c *Config) { c.Markdown.Engine = "pandoc" },
		"store":         func(c *Config) { c.Session.Store = "redis" },
		"sqlite path":   func(c *Config) { c.Session.Store = StoreSQLite; c.Session.Path = "" },
		"log level":     func(c *Config) { c.Log.Level = "loud" },
		"cache expiry":  func(c *Config) { c.Cache.Duration = Duration(-time.Second) },
		"negative size": func(c *Config) { c.Cache.SizeInBytes = -1 },
	}
	for name, mutate := range tests {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestDuration(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1h30m")); err != nil {
		t.Fatal(err)
	}
	if d.String() != "1h30m0s" {
		t.Errorf("Expected %q but got %q", "1h30m0s", d)
	}
	b, err := d.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "1h30m0s" {
		t.Errorf("Expected %q but got %q", "1h30m0s", b)
	}

	if err := d.UnmarshalText([]byte("later")); err == nil {
		t.Error("Expected error for an invalid duration")
	}
	if time.Duration(d) != 90*time.Minute {
		t.Errorf("Expected value to be kept on error, got %s", d)
	}

	if err := d.UnmarshalText([]byte(" ")); err != nil {
		t.Fatal(err)
	}
	if d != 0 {
		t.Errorf("Expected zero for an empty string, got %s", d)
	}
}
