package config

import (
	"path/filepath"
	"testing"
)

func TestDir_PrefersDplyConfigDirEnvVar(t *testing.T) {
	t.Setenv(envConfigDir, "/tmp/custom-dply")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != "/tmp/custom-dply" {
		t.Fatalf("got %q, want /tmp/custom-dply", dir)
	}
}

func TestDir_FallsBackToXDGConfigHome(t *testing.T) {
	t.Setenv(envConfigDir, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg", "dply") {
		t.Fatalf("got %q", dir)
	}
}

func TestPath_JoinsDirWithConfigYAML(t *testing.T) {
	t.Setenv(envConfigDir, "/tmp/custom-dply")
	path, err := Path()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join("/tmp/custom-dply", "config.yaml") {
		t.Fatalf("got %q", path)
	}
}

func TestLoad_ReturnsDefaultWhenFileMissing(t *testing.T) {
	t.Setenv(envConfigDir, t.TempDir())
	f, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != Default() {
		t.Fatalf("got %#v, want %#v", f, Default())
	}
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	t.Setenv(envConfigDir, t.TempDir())
	want := File{MaxColumns: 5, MaxColumnWidth: 10, MaxTableWidth: 80}
	if err := Save(want); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestHistoryPath_SharesConfigDirWithConfigYAMLByDefault(t *testing.T) {
	t.Setenv(envConfigDir, "/tmp/custom-dply")
	hp, err := HistoryPath(Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hp != filepath.Join("/tmp/custom-dply", "history") {
		t.Fatalf("got %q", hp)
	}
}

func TestHistoryPath_HonorsExplicitOverride(t *testing.T) {
	t.Setenv(envConfigDir, "/tmp/custom-dply")
	hp, err := HistoryPath(File{HistoryFile: "/tmp/elsewhere/history"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hp != "/tmp/elsewhere/history" {
		t.Fatalf("got %q", hp)
	}
}
