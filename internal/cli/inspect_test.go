package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/figcomp/pkg/imageio"
	"github.com/matzehuels/figcomp/pkg/layout"
	"github.com/matzehuels/figcomp/pkg/pipeline"
)

func inspectFixture(n int) *pipeline.Result {
	fig := &layout.Figure{}
	for i := 0; i < n; i++ {
		fig.Leaves = append(fig.Leaves, &layout.Node{
			Kind:       layout.Image,
			Source:     string(rune('a'+i)) + ".png",
			Where:      "Row",
			Asset:      &imageio.Asset{Width: 10, Height: 10},
			Box:        layout.Rect{X: float64(10 * i), W: 10, H: 10},
			LabelIndex: i,
			Label:      "(" + string(rune('a'+i)) + ")",
		})
	}
	return &pipeline.Result{Figure: fig, Width: 10 * n, Height: 10}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m
}

func TestInspectNavigation(t *testing.T) {
	tests := []struct {
		keys []string
		want int
	}{
		{nil, 0},
		{[]string{"down", "down"}, 2},
		{[]string{"j", "j", "k"}, 1},
		{[]string{"up"}, 0},
		{[]string{"G"}, 3},
		{[]string{"G", "down"}, 3},
		{[]string{"G", "g"}, 0},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.keys, ","), func(t *testing.T) {
			m := press(newInspectModel("fig.yaml", inspectFixture(4)), tt.keys...).(inspectModel)
			if m.cursor != tt.want {
				t.Errorf("cursor = %d, want %d", m.cursor, tt.want)
			}
		})
	}
}

func TestInspectScroll(t *testing.T) {
	var m tea.Model = newInspectModel("fig.yaml", inspectFixture(20))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 17})
	m = press(m, "G")
	im := m.(inspectModel)
	if im.height != 5 || im.offset != 15 {
		t.Errorf("height = %d, offset = %d; want 5, 15", im.height, im.offset)
	}
	if view := im.View(); !strings.Contains(view, "t.png") || strings.Contains(view, "a.png") {
		t.Errorf("view should show only the last rows:\n%s", view)
	}
}

func TestInspectView(t *testing.T) {
	view := newInspectModel("fig.yaml", inspectFixture(2)).View()
	for _, want := range []string{"fig.yaml  20x10 px", "a.png", "(b)", "10x10+10+0", "[1/2]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestInspectQuit(t *testing.T) {
	_, cmd := newInspectModel("fig.yaml", inspectFixture(1)).Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
