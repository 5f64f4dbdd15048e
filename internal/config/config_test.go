package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Layout.DayStartHour != 7 || cfg.Layout.DayEndHour != 21 {
		t.Fatalf("unexpected default hours %d..%d", cfg.Layout.DayStartHour, cfg.Layout.DayEndHour)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("listen: \":9000\"\nweek_start: friday\nlayout:\n  day_start_hour: 22\n  day_end_hour: 6\n  gutter_pct: -3\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Fatalf("expected listen to be kept, got %q", cfg.Listen)
	}
	if cfg.WeekStart != "monday" || cfg.FirstWeekday() != time.Monday {
		t.Fatalf("expected unknown week start to fall back to monday, got %q", cfg.WeekStart)
	}
	if h := cfg.Hours(); h.StartHour != 7 || h.EndHour != 21 {
		t.Fatalf("expected invalid hours to be reset, got %+v", h)
	}
	if cfg.Layout.GutterPct != 0 || cfg.Layout.MinHeightPct != 3 {
		t.Fatalf("unexpected layout options %+v", cfg.Layout)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.WeekStart = "sunday"
	cfg.Tasks = "/tmp/tasks.ics"
	cfg.Layout.DayStartHour = 6
	cfg.Layout.GutterPct = 2
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.FirstWeekday() != time.Sunday || got.Tasks != "/tmp/tasks.ics" {
		t.Fatalf("unexpected config %+v", got)
	}
	if opts := got.LayoutOptions(); opts.GutterPct != 2 || got.Hours().StartHour != 6 {
		t.Fatalf("unexpected layout %+v / %+v", opts, got.Hours())
	}
}

func TestLocationFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Not/AZone"
	if cfg.Location() != time.Local {
		t.Fatalf("expected fallback to time.Local")
	}
	cfg.Timezone = "UTC"
	if cfg.Location().String() != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Location())
	}
}
