package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/graingraph/graingraph/pkg/checkpoint"
	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/lattice"
)

func TestParseDims(t *testing.T) {
	tests := []struct {
		input   string
		want    lattice.Dims
		wantErr bool
	}{
		{"30,30,30", lattice.Dims{X: 30, Y: 30, Z: 30}, false},
		{" 4, 2 ,6 ", lattice.Dims{X: 4, Y: 2, Z: 6}, false},
		{"4,2", lattice.Dims{}, true},
		{"4,2,6,8", lattice.Dims{}, true},
		{"4,x,6", lattice.Dims{}, true},
		{"", lattice.Dims{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDims(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDims(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("error code = %s, want INVALID_INPUT", errors.GetCode(err))
			}
			if got != tt.want {
				t.Errorf("parseDims(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSteps(t *testing.T) {
	got, err := parseSteps("0, 10,20,")
	if err != nil {
		t.Fatalf("parseSteps() error: %v", err)
	}
	if len(got) != 3 || got[0] != 0 || got[1] != 10 || got[2] != 20 {
		t.Errorf("parseSteps() = %v, want [0 10 20]", got)
	}

	if _, err := parseSteps("0,ten"); err == nil {
		t.Error("parseSteps() should reject non-numeric steps")
	}
}

func TestFormatIDs(t *testing.T) {
	if got := formatIDs(nil); got != "-" {
		t.Errorf("formatIDs(nil) = %q, want \"-\"", got)
	}
	if got := formatIDs([]int64{3, 1, 7}); got != "3 1 7" {
		t.Errorf("formatIDs() = %q, want \"3 1 7\"", got)
	}
}

func TestDisplayAddr(t *testing.T) {
	if got := displayAddr(":8080"); got != "localhost:8080" {
		t.Errorf("displayAddr(:8080) = %q", got)
	}
	if got := displayAddr("0.0.0.0:9000"); got != "0.0.0.0:9000" {
		t.Errorf("displayAddr(0.0.0.0:9000) = %q", got)
	}
}

// run executes the CLI with args and returns the log output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stderr bytes.Buffer
	err := Execute(context.Background(), &stderr, args)
	return stderr.String(), err
}

func TestCommands_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	ckpt := filepath.Join(dir, "graph.ckpt")

	if _, err := run(t, "generate", "--rve", "4,4,4", "--grains", "2,2,2",
		"--self-loops", "--steps", "0,10", "-f", ckpt, "--verify"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := os.Stat(ckpt); err != nil {
		t.Fatalf("checkpoint not written: %v", err)
	}

	for _, args := range [][]string{
		{"edges", "-f", ckpt, "--verify"},
		{"edges", "-f", ckpt, "-t", "0"},
		{"connections", "-f", ckpt, "--all"},
		{"steps", "-f", ckpt},
		{"steps", "-f", ckpt, "--dataset", checkpoint.DatasetEdgeIndex},
	} {
		if _, err := run(t, args...); err != nil {
			t.Errorf("%s: %v", strings.Join(args, " "), err)
		}
	}

	prefix := filepath.Join(dir, "out", "grains")
	if _, err := run(t, "export", "-f", ckpt, "-t", "10", "--format", "csv,dat,tensor", "-o", prefix); err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, name := range []string{"edges.csv", "nodes.csv", "connections.dat", "tensor.json"} {
		path := prefix + "_t10_" + name
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing export %s: %v", path, err)
		}
	}
}

func TestCommands_MissingStep(t *testing.T) {
	ckpt := filepath.Join(t.TempDir(), "graph.ckpt")
	if _, err := run(t, "generate", "--rve", "2,2,2", "--grains", "2,2,2", "-f", ckpt); err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err := run(t, "edges", "-f", ckpt, "-t", "99")
	if !errors.IsNotFound(err) {
		t.Fatalf("edges -t 99 error = %v, want not found", err)
	}
	if !strings.Contains(err.Error(), "99") || !strings.Contains(err.Error(), "[0]") {
		t.Errorf("error should name the key and list available steps: %v", err)
	}
}

func TestCommands_MissingNamespace(t *testing.T) {
	ckpt := filepath.Join(t.TempDir(), "empty.ckpt")
	_, err := run(t, "steps", "-f", ckpt, "--dataset", "EdgeIndex")
	if !errors.IsNotFound(err) {
		t.Errorf("steps on an empty checkpoint error = %v, want not found", err)
	}
}

func TestCommands_MissingDirectoryIsNotCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing", "dir")
	_, err := run(t, "edges", "-f", filepath.Join(dir, "x.ckpt"))
	if !errors.IsNotFound(err) {
		t.Errorf("edges on a missing checkpoint error = %v, want not found", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("edges created %s (stat err = %v)", dir, err)
	}
}

func TestGenerate_Rejects(t *testing.T) {
	ckpt := filepath.Join(t.TempDir(), "graph.ckpt")
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"malformed rve", []string{"--rve", "4,4"}, errors.ErrCodeInvalidInput},
		{"non-divisible", []string{"--rve", "5,4,4", "--grains", "2,2,2"}, errors.ErrCodeInvalidConfig},
		{"bad mode", []string{"--mode", "voronoi"}, errors.ErrCodeInvalidConfig},
		{"unknown bridge", []string{"--rve", "2,2,2", "--grains", "1,1,1", "--export", "hdf5"}, errors.ErrCodeUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"generate", "-f", ckpt}, tt.args...)
			_, err := run(t, args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestGenerate_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	ckpt := filepath.Join(dir, "graph.ckpt")
	config := filepath.Join(dir, "run.toml")
	data := `volume = { x = 6, y = 6, z = 6 }
grains = { x = 3, y = 3, z = 3 }
steps = [5]
mode = "cells"
`
	if err := os.WriteFile(config, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	// --steps overrides the file, the rest comes from it.
	if _, err := run(t, "generate", "--config", config, "--steps", "1,2", "-f", ckpt); err != nil {
		t.Fatalf("generate: %v", err)
	}

	archive, err := checkpoint.Open(context.Background(), ckpt, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer archive.Close()

	steps, err := archive.TimeSteps(context.Background(), checkpoint.DatasetEdgeIndex)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 2 || steps[0] != 1 || steps[1] != 2 {
		t.Errorf("steps = %v, want [1 2]", steps)
	}
	run2, err := archive.ReadRun(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if run2.Grains != (lattice.Dims{X: 3, Y: 3, Z: 3}) {
		t.Errorf("run grains = %v, want 3x3x3 from the config file", run2.Grains)
	}
}

func TestExecute_Verbose(t *testing.T) {
	ckpt := filepath.Join(t.TempDir(), "graph.ckpt")
	out, err := run(t, "-v", "generate", "--rve", "2,2,2", "--grains", "1,1,1", "-f", ckpt)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "opening checkpoint") {
		t.Errorf("verbose run should log debug lines, got %q", out)
	}
}
