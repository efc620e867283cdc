package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ancientlore/docserve/config"
	"github.com/ancientlore/docserve/session"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(config.Log{Level: "warn", Format: "json"}, &buf)
	log.Info("hidden")
	log.Warn("shown", slog.String("k", "v"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	log = newLogger(config.Log{}, &buf)
	log.Debug("hidden")
	log.Info("shown")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestOpenSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "main"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main", "intro.mdx"), []byte("# Intro"), 0o644))

	src, err := openSource(context.Background(), config.Source{Kind: config.SourceDir, Dir: dir})
	require.NoError(t, err)
	defer src.Close()
	assert.Nil(t, src.git)
	b, err := src.ReadArticle(context.Background(), "main", "intro")
	require.NoError(t, err)
	assert.Equal(t, "# Intro", string(b))

	_, err = openSource(context.Background(), config.Source{Kind: "ftp"})
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	store, closer, err := openStore(config.Session{Store: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, store)
	assert.NoError(t, closer.Close())

	store, closer, err = openStore(config.Session{Store: config.StoreSQLite, Path: filepath.Join(t.TempDir(), "sessions.db")})
	require.NoError(t, err)
	assert.IsType(t, &session.SQLiteStore{}, store)
	assert.NoError(t, closer.Close())
}

func TestJobsFor(t *testing.T) {
	cfg := config.Default()
	cfg.Session.MaxAge = config.Duration(time.Hour)
	jobs := jobsFor(cfg, source{}, nil, session.NewMemoryStore(), nil, slog.Default())
	var names []string
	for _, j := range jobs {
		names = append(names, j.name)
	}
	assert.Equal(t, []string{"warm", "prunesessions"}, names)

	cfg.Session.MaxAge = 0
	jobs = jobsFor(cfg, source{}, nil, session.NewMemoryStore(), nil, slog.Default())
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].immediate)
}

func TestStartJobs(t *testing.T) {
	ran := make(chan string, 4)
	jobs := []job{
		{name: "now", every: time.Hour, immediate: true, run: func(context.Context) error {
			ran <- "now"
			return nil
		}},
		{name: "off", run: func(context.Context) error {
			ran <- "off"
			return nil
		}},
	}
	s, err := startJobs(context.Background(), jobs, slog.Default())
	require.NoError(t, err)
	defer s.Shutdown()

	select {
	case name := <-ran:
		assert.Equal(t, "now", name)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
	assert.Len(t, s.Jobs(), 1)
}
