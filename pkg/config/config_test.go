package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleSettings struct {
	Driver  string        `envconfig:"DRIVER" default:"memory"`
	DSN     string        `envconfig:"DSN"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"5s"`
	Retries int           `envconfig:"MAX_RETRIES" default:"3"`
}

type guardedSettings struct {
	APIKey string `envconfig:"API_KEY" required:"true"`
}

func TestNewFillsFromEnvironment(t *testing.T) {
	t.Setenv("CFGTEST_FILL_DRIVER", "postgres")
	t.Setenv("CFGTEST_FILL_DSN", "postgres://localhost:5432/stock")
	t.Setenv("CFGTEST_FILL_TIMEOUT", "9s")

	conf, err := New[sampleSettings]("CFGTEST_FILL")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if conf.Driver != "postgres" {
		t.Fatalf("expected driver postgres, got %q", conf.Driver)
	}
	if conf.DSN != "postgres://localhost:5432/stock" {
		t.Fatalf("unexpected dsn %q", conf.DSN)
	}
	if conf.Timeout != 9*time.Second {
		t.Fatalf("expected 9s timeout, got %v", conf.Timeout)
	}
	if conf.Retries != 3 {
		t.Fatalf("expected default retries, got %d", conf.Retries)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	conf, err := New[sampleSettings]("CFGTEST_DEFAULTS")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if conf.Driver != "memory" || conf.Timeout != 5*time.Second || conf.Retries != 3 {
		t.Fatalf("unexpected defaults %+v", conf)
	}
}

func TestNewReportsMissingRequiredValue(t *testing.T) {
	if _, err := New[guardedSettings]("CFGTEST_REQUIRED"); err == nil {
		t.Fatal("expected an error for the missing required value")
	}
}

func TestMustNewPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustNew to panic")
		}
	}()
	MustNew[guardedSettings]("CFGTEST_PANIC")
}

func TestExportEnvironmentLoadsFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.env")
	if err := os.WriteFile(path, []byte("CFGTEST_FROM_FILE=harbor\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("CFGTEST_FROM_FILE") })

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment: %v", err)
	}
	if got := os.Getenv("CFGTEST_FROM_FILE"); got != "harbor" {
		t.Fatalf("expected file value exported, got %q", got)
	}
}

func TestExportEnvironmentKeepsProcessValues(t *testing.T) {
	t.Setenv("CFGTEST_KEEP", "process-wins")

	path := filepath.Join(t.TempDir(), "settings.env")
	if err := os.WriteFile(path, []byte("CFGTEST_KEEP=file-value\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment: %v", err)
	}
	if got := os.Getenv("CFGTEST_KEEP"); got != "process-wins" {
		t.Fatalf("expected the process value kept, got %q", got)
	}
}

func TestExportEnvironmentIfExistsToleratesMissingFile(t *testing.T) {
	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected a missing file to be skipped, got %v", err)
	}
}
