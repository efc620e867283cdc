/*
Package config reads the server configuration from a TOML file. Every setting has a
default, so the file is optional. Command line flags and environment variables
override the file; see cmd/docserve.

	[server]
	port = 8080
	expires = "1m"
	staticexpires = "24h"

	[server.headers]
	X-Frame-Options = "DENY"

	[site]
	name = "Plugin Docs"
	baseurl = "https://docs.example.com"
	defaultversion = "main"
	templates = "templates"

	[site.aliases]
	latest = "main"

	[source]
	kind = "github"   # dir, github, git or bucket

	[source.github]
	owner = "acme"
	repo = "docs"
	dir = "docs"
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pelletier/go-toml/v2"
)

// Source kinds.
const (
	SourceDir    = "dir"
	SourceGitHub = "github"
	SourceGit    = "git"
	SourceBucket = "bucket"
)

// Session stores.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the server configuration.
type Config struct {
	Server   Server   `toml:"server"`
	Site     Site     `toml:"site"`
	Source   Source   `toml:"source"`
	Cache    Cache    `toml:"cache"`
	Markdown Markdown `toml:"markdown"`
	Session  Session  `toml:"session"`
	Search   Search   `toml:"search"`
	Notify   Notify   `toml:"notify"`
	Jobs     Jobs     `toml:"jobs"`
	Log      Log      `toml:"log"`
}

// Server configures the HTTP server.
type Server struct {
	Port              int               `toml:"port"`
	ReadTimeout       Duration          `toml:"readtimeout"`
	ReadHeaderTimeout Duration          `toml:"readheadertimeout"`
	WriteTimeout      Duration          `toml:"writetimeout"`
	ShutdownTimeout   Duration          `toml:"shutdowntimeout"`
	Expires           Duration          `toml:"expires"`
	StaticExpires     Duration          `toml:"staticexpires"`
	Headers           map[string]string `toml:"headers"`
}

// Site configures the documentation site.
type Site struct {
	Name           string            `toml:"name"`
	BaseURL        string            `toml:"baseurl"`
	DefaultVersion string            `toml:"defaultversion"`
	DefaultSlugs   []string          `toml:"defaultslugs"`
	Aliases        map[string]string `toml:"aliases"`
	Templates      string            `toml:"templates"`
}

// Source selects where content comes from.
type Source struct {
	Kind   string       `toml:"kind"`
	Dir    string       `toml:"dir"`
	GitHub GitHubSource `toml:"github"`
	Git    GitSource    `toml:"git"`
	Bucket BucketSource `toml:"bucket"`
}

// GitHubSource reads content through the GitHub contents API.
type GitHubSource struct {
	APIURL   string   `toml:"apiurl"`
	Owner    string   `toml:"owner"`
	Repo     string   `toml:"repo"`
	Dir      string   `toml:"dir"`
	Token    string   `toml:"token"`
	Branches []string `toml:"branches"`
}

// GitSource reads content from a repository cloned into memory.
type GitSource struct {
	URL   string `toml:"url"`
	Dir   string `toml:"dir"`
	Token string `toml:"token"`
}

// BucketSource reads content from an object store.
type BucketSource struct {
	URL    string `toml:"url"`
	Prefix string `toml:"prefix"`
}

// Cache configures the in-memory content cache.
type Cache struct {
	SizeInBytes int64    `toml:"size"`
	Duration    Duration `toml:"duration"`
}

// Markdown configures the compiler.
type Markdown struct {
	Engine        string `toml:"engine"`
	Style         string `toml:"style"`
	GuessLanguage bool   `toml:"guesslanguage"`
}

// Session configures theme preference storage.
type Session struct {
	Store  string   `toml:"store"`
	Path   string   `toml:"path"`
	Secure bool     `toml:"secure"`
	MaxAge Duration `toml:"maxage"`
}

// Search holds the Algolia DocSearch settings.
type Search struct {
	AppID     string `toml:"appid"`
	APIKey    string `toml:"apikey"`
	IndexName string `toml:"indexname"`
}

// Notify configures cache invalidation.
type Notify struct {
	NATSURL string `toml:"natsurl"`
	Subject string `toml:"subject"`
	Watch   bool   `toml:"watch"`
}

// Jobs configures background jobs. A zero interval disables a job.
type Jobs struct {
	Warm         Duration `toml:"warm"`
	Fetch        Duration `toml:"fetch"`
	PruneSession Duration `toml:"prunesessions"`
}

// Log configures logging.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Server: Server{
			Port:              8080,
			ReadTimeout:       Duration(10 * time.Second),
			ReadHeaderTimeout: Duration(5 * time.Second),
			WriteTimeout:      Duration(30 * time.Second),
			ShutdownTimeout:   Duration(10 * time.Second),
			StaticExpires:     Duration(24 * time.Hour),
		},
		Site: Site{
			Name:           "Documentation",
			DefaultVersion: "main",
			DefaultSlugs:   []string{"installation", "intro"},
		},
		Source: Source{
			Kind: SourceDir,
			Dir:  "docs",
		},
		Cache: Cache{
			SizeInBytes: 32 << 20,
			Duration:    Duration(10 * time.Minute),
		},
		Markdown: Markdown{
			Engine: "goldmark",
			Style:  "github",
		},
		Session: Session{
			Store:  StoreMemory,
			Path:   "sessions.db",
			MaxAge: Duration(365 * 24 * time.Hour),
		},
		Notify: Notify{
			Subject: "docs.updated",
		},
		Jobs: Jobs{
			PruneSession: Duration(24 * time.Hour),
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration file at path on top of the defaults.
// It is not an error if the file does not exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return cfg, fmt.Errorf("Cannot read config file: %w", err)
	}
	if err := Parse(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes TOML into cfg. Unknown keys are rejected.
func Parse(b []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("Cannot parse config file: %w", err)
	}
	return nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Site),
		validation.Field(&c.Source),
		validation.Field(&c.Cache),
		validation.Field(&c.Markdown),
		validation.Field(&c.Session),
		validation.Field(&c.Log),
	)
}

func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&s.ReadTimeout, validation.Min(Duration(0))),
		validation.Field(&s.WriteTimeout, validation.Min(Duration(0))),
		validation.Field(&s.ShutdownTimeout, validation.Min(Duration(0))),
	)
}

func (s Site) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.DefaultVersion, validation.Required),
		validation.Field(&s.BaseURL, validation.By(absoluteURL)),
		validation.Field(&s.Aliases, validation.By(func(value any) error {
			for alias, canonical := range value.(map[string]string) {
				if alias == canonical {
					return fmt.Errorf("alias %q points to itself", alias)
				}
				if _, ok := s.Aliases[canonical]; ok {
					return fmt.Errorf("alias %q points to alias %q", alias, canonical)
				}
			}
			return nil
		})),
	)
}

func (s Source) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Kind, validation.Required, validation.In(SourceDir, SourceGitHub, SourceGit, SourceBucket)),
		validation.Field(&s.Dir, validation.When(s.Kind == SourceDir, validation.Required)),
		validation.Field(&s.GitHub, validation.When(s.Kind == SourceGitHub, validation.By(func(any) error {
			return validation.ValidateStruct(&s.GitHub,
				validation.Field(&s.GitHub.Owner, validation.Required),
				validation.Field(&s.GitHub.Repo, validation.Required),
				validation.Field(&s.GitHub.APIURL, validation.By(absoluteURL)),
			)
		}))),
		validation.Field(&s.Git, validation.When(s.Kind == SourceGit, validation.By(func(any) error {
			return validation.ValidateStruct(&s.Git,
				validation.Field(&s.Git.URL, validation.Required),
			)
		}))),
		validation.Field(&s.Bucket, validation.When(s.Kind == SourceBucket, validation.By(func(any) error {
			return validation.ValidateStruct(&s.Bucket,
				validation.Field(&s.Bucket.URL, validation.Required),
			)
		}))),
	)
}

func (c Cache) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SizeInBytes, validation.Min(int64(0))),
		validation.Field(&c.Duration, validation.Min(Duration(0))),
	)
}

func (m Markdown) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Engine, validation.In("goldmark", "blackfriday")),
	)
}

func (s Session) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Store, validation.Required, validation.In(StoreMemory, StoreSQLite)),
		validation.Field(&s.Path, validation.When(s.Store == StoreSQLite, validation.Required)),
	)
}

func (l Log) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

// absoluteURL checks that a non-empty string is an absolute URL.
func absoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}
