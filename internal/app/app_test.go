package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/law-makers/expowait/internal/config"
	"github.com/law-makers/expowait/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestNew_NilConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	require.Error(t, err)
}

func TestNew_BadProxy(t *testing.T) {
	cfg := config.Default()
	cfg.Proxy = "localhost:8080"
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}

func TestReader_Kinds(t *testing.T) {
	a, err := NewWithWriter(context.Background(), config.Default(), &bytes.Buffer{})
	require.NoError(t, err)
	defer a.Close(context.Background())

	tests := map[models.SourceKind]string{
		models.SourceHTML:    "StaticReader",
		models.SourceBrowser: "BrowserReader",
		models.SourceSheet:   "SheetReader",
	}
	for kind, name := range tests {
		r, err := a.Reader(kind)
		require.NoError(t, err)
		require.Equal(t, name, r.Name())
	}

	_, err = a.Reader("ftp")
	require.Error(t, err)
}

func TestRunner_Fallback(t *testing.T) {
	cfg := config.Default()
	cfg.Source = models.SourceBrowser
	cfg.Fallback = models.SourceSheet

	a, err := NewWithWriter(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)

	runner, err := a.Runner()
	require.NoError(t, err)
	require.Equal(t, "BrowserReader+SheetReader", runner.Source.Name())
	require.Equal(t, cfg.Layout(models.SourceBrowser), runner.Layout)
	require.Equal(t, cfg.Layout(models.SourceSheet), runner.Layouts["SheetReader"])
	require.Equal(t, cfg.OutputFile, a.Sink.Path())
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.LogLevel = "error"

	a, err := NewWithWriter(context.Background(), cfg, &buf)
	require.NoError(t, err)

	a.Logger.Info().Msg("hidden")
	a.Logger.Error().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}
