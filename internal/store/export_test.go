package store

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleData() *ExportData {
	return &ExportData{
		Model:      "springchain",
		Dt:         0.01,
		Steps:      2,
		Times:      []float64{0, 0.01, 0.02},
		Positions:  [][]float64{{0, 1}, {0.1, 0.9}, {0.2, 0.8}},
		Velocities: [][]float64{{0, 0}, {1, -1}, {1, -1}},
		Torques:    [][]float64{{0.5, -0.5}, {0.4, -0.4}},
		Loss:       1.25,
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traj.json")
	if err := ExportJSON(path, sampleData()); err != nil {
		t.Fatalf("export: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got ExportData
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Model != "springchain" || got.Loss != 1.25 || len(got.Positions) != 3 {
		t.Errorf("round trip: %+v", got)
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traj.csv")
	if err := ExportCSV(path, sampleData()); err != nil {
		t.Fatalf("export: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3 samples", len(rows))
	}
	wantHeader := "t,pos0,pos1,vel0,vel1,torque0,torque1"
	if strings.Join(rows[0], ",") != wantHeader {
		t.Errorf("header = %v", rows[0])
	}
	// The terminal sample has no torque; its cells stay empty.
	last := rows[3]
	if last[5] != "" || last[6] != "" {
		t.Errorf("terminal torque cells should be empty, got %v", last[5:])
	}
}

func TestExportSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traj.svg")
	if err := ExportSVG(path, sampleData()); err != nil {
		t.Fatalf("export: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(raw)
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "</svg>") {
		t.Error("not an SVG document")
	}
	// one polyline per dof
	if strings.Count(svg, "<path") != 2 {
		t.Errorf("expected 2 paths, got %d", strings.Count(svg, "<path"))
	}

	if err := ExportSVG(filepath.Join(t.TempDir(), "short.svg"), &ExportData{
		Positions: [][]float64{{0}},
	}); err == nil {
		t.Error("expected error for a single-sample trajectory")
	}
}
