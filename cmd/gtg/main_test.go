package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/anoved/Ground-Track-Generator/internal/tle"
)

const issTLE = `ISS (ZARYA)
1 25544U 98067A   12079.89583855  .00016581  00000-0  21080-3 0  2156
2 25544  51.6414 209.7068 0016865 175.1468 330.0443 15.59367837764090
`

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func execute(t *testing.T, stdin string, args ...string) error {
	t.Helper()
	t.Setenv("GTG_TLE_CACHE_DIR", t.TempDir())
	cmd := newRootCmd(strings.NewReader(stdin), io.Discard)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestRunPointsCSV(t *testing.T) {
	dir := t.TempDir()
	err := execute(t, "",
		"--tle", issTLE,
		"--format", "csv",
		"--output", dir,
		"--id",
		"--steps", "3",
		"--attributes", "altitude,mfe",
	)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "25544.csv"))
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	want := []string{"index", "longitude", "latitude", "altitude", "mfe"}
	if strings.Join(rows[0], ",") != strings.Join(want, ",") {
		t.Errorf("header = %v, want %v", rows[0], want)
	}

	for i, row := range rows[1:] {
		lat, _ := strconv.ParseFloat(row[2], 64)
		if math.Abs(lat) > 52 {
			t.Errorf("row %d latitude %v exceeds ISS inclination", i, lat)
		}
		alt, _ := strconv.ParseFloat(row[3], 64)
		if alt < 300 || alt > 500 {
			t.Errorf("row %d altitude %v km, want ~400", i, alt)
		}
		mfe, _ := strconv.ParseFloat(row[4], 64)
		if math.Abs(mfe-float64(i)) > 1e-6 {
			t.Errorf("row %d mfe = %v, want %d", i, mfe, i)
		}
	}
}

func TestRunLinesFromStdin(t *testing.T) {
	dir := t.TempDir()
	err := execute(t, issTLE,
		"--format", "csv",
		"--output", dir,
		"--prefix", "iss-",
		"--features", "line",
		"--steps", "2",
		"-",
	)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "iss-ISS__ZARYA_.csv"))
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][1] != "wkt" {
		t.Errorf("header = %v, want wkt column", rows[0])
	}
	if !strings.HasPrefix(rows[1][1], "LINESTRING") {
		t.Errorf("geometry = %q, want LINESTRING", rows[1][1])
	}
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "gtg.toml")
	tlePath := filepath.Join(t.TempDir(), "iss.tle")
	if err := os.WriteFile(tlePath, []byte(issTLE), 0644); err != nil {
		t.Fatal(err)
	}
	cfgText := `steps = 5
interval = "30s"

[output]
dir = "` + filepath.ToSlash(dir) + `"
format = "csv"
id = true

[tle]
sources = ["` + filepath.ToSlash(tlePath) + `"]
`
	if err := os.WriteFile(cfgPath, []byte(cfgText), 0644); err != nil {
		t.Fatal(err)
	}

	// The flag wins over the file's step count.
	if err := execute(t, "", "--config", cfgPath, "--steps", "2", "--attributes", "mfe"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, "25544.csv"))
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	mfe, _ := strconv.ParseFloat(rows[2][3], 64)
	if math.Abs(mfe-0.5) > 1e-6 {
		t.Errorf("second mfe = %v, want 0.5 from the file's interval", mfe)
	}
}

func TestRunTraceFailureReturnsError(t *testing.T) {
	err := execute(t, "",
		"--tle", issTLE,
		"--format", "csv",
		"--output", t.TempDir(),
		"--end", "epoch -10m",
	)
	if err == nil {
		t.Fatal("expected error for an end before the start")
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown attribute", []string{"--attributes", "colour"}},
		{"bad feature", []string{"--features", "polygon"}},
		{"bad observer", []string{"--observer", "north"}},
		{"bad interval", []string{"--interval", "10x"}},
		{"observer attribute without observer", []string{"--attributes", "elevation"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--tle", issTLE, "--format", "csv", "--output", t.TempDir()}, tt.args...)
			if err := execute(t, "", args...); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}

func TestParseObserver(t *testing.T) {
	tests := []struct {
		in      string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"44.5,-73.2", 44.5, -73.2, false},
		{"44.5, -73.2, 120", 44.5, -73.2, false},
		{"-33.9,151.2,0", -33.9, 151.2, false},
		{"44.5", 0, 0, true},
		{"1,2,3,4", 0, 0, true},
		{"a,b", 0, 0, true},
		{"91,0", 0, 0, true},
		{"0,181", 0, 0, true},
	}
	for _, tt := range tests {
		obs, err := parseObserver(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseObserver(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseObserver(%q): %v", tt.in, err)
			continue
		}
		if math.Abs(obs.LatDeg()-tt.lat) > 1e-9 || math.Abs(obs.LonDeg()-tt.lon) > 1e-9 {
			t.Errorf("parseObserver(%q) = %v,%v, want %v,%v", tt.in, obs.LatDeg(), obs.LonDeg(), tt.lat, tt.lon)
		}
	}
}

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("GTG_TLE_CACHE_DIR", "/var/cache/gtg")
	t.Setenv("GTG_TLE_CACHE_MAX_FILES", "9")
	t.Setenv("GTG_METRICS_FILE", "/tmp/gtg.prom")

	cfg := loadEnvConfig(defaultEnvConfig(), testLogger)
	if cfg.CacheDir != "/var/cache/gtg" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.CacheMaxFiles != 9 {
		t.Errorf("CacheMaxFiles = %d, want 9", cfg.CacheMaxFiles)
	}
	if cfg.MetricsFile != "/tmp/gtg.prom" {
		t.Errorf("MetricsFile = %q", cfg.MetricsFile)
	}
}

func TestLoadEnvConfigInvalidKeepsDefault(t *testing.T) {
	t.Setenv("GTG_TLE_CACHE_MAX_FILES", "zero")

	base := defaultEnvConfig()
	base.CacheMaxFiles = 3
	cfg := loadEnvConfig(base, testLogger)
	if cfg.CacheMaxFiles != 3 {
		t.Errorf("CacheMaxFiles = %d, want 3", cfg.CacheMaxFiles)
	}
}

func TestElementLoaderFallsBackToCache(t *testing.T) {
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, issTLE)
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	loader := &elementLoader{
		stdin:  strings.NewReader(""),
		cache:  tle.NewCache(cacheDir, 2),
		logger: testLogger,
	}

	got, err := loader.Load(context.Background(), "", []string{srv.URL})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].NORADID != 25544 {
		t.Fatalf("Load = %+v, want the ISS", got)
	}

	failing.Store(true)
	got, err = loader.Load(context.Background(), "", []string{srv.URL})
	if err != nil {
		t.Fatalf("Load with failing source: %v", err)
	}
	if len(got) != 1 || got[0].NORADID != 25544 {
		t.Fatalf("cached Load = %+v, want the ISS", got)
	}
}

func TestElementLoaderNoCacheFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	loader := &elementLoader{
		stdin:  strings.NewReader(""),
		cache:  tle.NewCache(t.TempDir(), 2),
		logger: testLogger,
	}
	if _, err := loader.Load(context.Background(), "", []string{srv.URL}); err == nil {
		t.Fatal("expected error with no cached copy")
	}
}

func TestElementLoaderCombinesSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iss.tle")
	if err := os.WriteFile(path, []byte(issTLE), 0644); err != nil {
		t.Fatal(err)
	}

	loader := &elementLoader{
		stdin:  strings.NewReader(issTLE),
		cache:  tle.NewCache(t.TempDir(), 2),
		logger: testLogger,
	}
	got, err := loader.Load(context.Background(), issTLE, []string{path, "-"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d elements, want 3", len(got))
	}

	if _, err := loader.Load(context.Background(), "", []string{filepath.Join(t.TempDir(), "missing.tle")}); err == nil {
		t.Error("expected error for a missing file")
	}
}
