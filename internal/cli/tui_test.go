package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/graingraph/graingraph/pkg/checkpoint"
	"github.com/graingraph/graingraph/pkg/errors"
	"github.com/graingraph/graingraph/pkg/graph"
	"github.com/graingraph/graingraph/pkg/lattice"
	"github.com/graingraph/graingraph/pkg/store"
)

func seedArchive(t *testing.T) *checkpoint.Archive {
	t.Helper()
	ctx := context.Background()
	archive := checkpoint.New(store.NewMemoryBackend(), nil)
	g, err := graph.Build(lattice.Dims{X: 2, Y: 1, Z: 1}, graph.Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, step := range []int{0, 10} {
		snap := checkpoint.Snapshot{Step: step, EdgeIndex: g.EdgeIndex(), Connections: g.Adjacency()}
		if err := archive.WriteSnapshot(ctx, snap); err != nil {
			t.Fatal(err)
		}
	}
	// Step 20 only has an edge index.
	if err := archive.WriteEdgeIndex(ctx, 20, g.EdgeIndex()); err != nil {
		t.Fatal(err)
	}
	return archive
}

func TestCollectSteps(t *testing.T) {
	rows, err := collectSteps(context.Background(), seedArchive(t))
	if err != nil {
		t.Fatalf("collectSteps() error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for i, want := range []int{0, 10, 20} {
		if rows[i].Step != want {
			t.Errorf("rows[%d].Step = %d, want %d", i, rows[i].Step, want)
		}
	}
	if !rows[0].Complete() || rows[2].Complete() {
		t.Error("steps 0 and 10 are complete, step 20 is not")
	}
}

func TestCollectSteps_Empty(t *testing.T) {
	archive := checkpoint.New(store.NewMemoryBackend(), nil)
	_, err := collectSteps(context.Background(), archive)
	if !errors.IsNotFound(err) {
		t.Errorf("collectSteps() on an empty archive error = %v, want not found", err)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestStepListModel(t *testing.T) {
	rows, err := collectSteps(context.Background(), seedArchive(t))
	if err != nil {
		t.Fatal(err)
	}
	m := NewStepListModel(rows)
	if m.Cursor != 2 {
		t.Fatalf("cursor starts at %d, want the latest step", m.Cursor)
	}

	// Step 20 is incomplete: enter does nothing.
	next, cmd := m.Update(key("enter"))
	m = next.(StepListModel)
	if m.Selected != nil || cmd != nil {
		t.Fatal("incomplete steps should not be selectable")
	}

	next, _ = m.Update(key("up"))
	m = next.(StepListModel)
	next, cmd = m.Update(key("enter"))
	m = next.(StepListModel)
	if m.Selected == nil || m.Selected.Step != 10 {
		t.Fatalf("selected = %+v, want step 10", m.Selected)
	}
	if cmd == nil {
		t.Error("selecting should quit the program")
	}

	next, _ = m.Update(key("g"))
	m = next.(StepListModel)
	if m.Cursor != 0 {
		t.Errorf("g should jump to the first step, cursor = %d", m.Cursor)
	}
	next, _ = m.Update(key("k"))
	m = next.(StepListModel)
	if m.Cursor != 0 {
		t.Errorf("cursor should not move above the first step, got %d", m.Cursor)
	}
}

func TestStepListModel_View(t *testing.T) {
	rows, err := collectSteps(context.Background(), seedArchive(t))
	if err != nil {
		t.Fatal(err)
	}
	view := NewStepListModel(rows).View()
	for _, want := range []string{"Select Time Step", "Step", checkpoint.DatasetEdgeIndex, "20", "[3/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestResolveStep(t *testing.T) {
	ctx := context.Background()
	archive := seedArchive(t)
	c := New(&strings.Builder{}, LogInfo)

	got, err := c.resolveStep(ctx, archive, checkpoint.DatasetConnections, latestStep)
	if err != nil || got != 10 {
		t.Errorf("latest connections step = %d, %v; want 10", got, err)
	}
	got, err = c.resolveStep(ctx, archive, checkpoint.DatasetEdgeIndex, latestStep)
	if err != nil || got != 20 {
		t.Errorf("latest edge index step = %d, %v; want 20", got, err)
	}
	got, err = c.resolveStep(ctx, archive, checkpoint.DatasetEdgeIndex, 0)
	if err != nil || got != 0 {
		t.Errorf("explicit step = %d, %v; want 0", got, err)
	}
}
