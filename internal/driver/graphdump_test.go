package driver

import (
	"strings"
	"testing"

	"tenure/internal/bundle"
	"tenure/internal/region"
	"tenure/internal/source"
)

func buildInference(t *testing.T, text string) *region.Inference {
	t.Helper()
	path := writeBundleFile(t, t.TempDir(), "case.bundle.toml", text)
	b, err := bundle.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	built, err := b.Build(source.NewFileSet())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return built.Inference
}

func TestDumpGraph(t *testing.T) {
	inf := buildInference(t, outlivesBundleTOML)

	d := DumpGraph(inf, true)
	if d.Fn != "make" || d.NumRegions != 3 || d.Static != "r1" {
		t.Fatalf("unexpected header: %+v", d)
	}
	if len(d.Regions) != 3 {
		t.Fatalf("expected 3 regions, got %d", len(d.Regions))
	}

	r1 := d.Regions[0]
	if r1.ID != "r1" || r1.Name != "'static" || !r1.Static || !r1.Universal || r1.Group != 1 {
		t.Fatalf("unexpected static row: %+v", r1)
	}
	r2 := d.Regions[1]
	if r2.ID != "r2" || r2.Name != "'a" || !r2.Universal || r2.Local || r2.Group != 2 {
		t.Fatalf("unexpected region row: %+v", r2)
	}
	if d.Regions[2].Name != "" || d.Regions[2].Group != 3 {
		t.Fatalf("unexpected plain row: %+v", d.Regions[2])
	}

	// static contributes one synthetic edge per other region, never a
	// self-edge; the two recorded constraints follow
	if len(d.Constraints) != 4 {
		t.Fatalf("expected 4 edges, got %d: %+v", len(d.Constraints), d.Constraints)
	}
	synthetic := 0
	for _, e := range d.Constraints {
		if e.Synthetic {
			synthetic++
			if e.Sup != "r1" || e.Category != "internal" {
				t.Fatalf("unexpected synthetic edge: %+v", e)
			}
			if e.Sub == "r1" {
				t.Fatalf("static self-edge dumped: %+v", e)
			}
		}
	}
	if synthetic != 2 {
		t.Fatalf("expected 2 synthetic edges, got %d", synthetic)
	}
	assertEdge(t, d.Constraints, GraphEdge{Sup: "r3", Sub: "r2", Category: "assignment", At: "bb0[0]"})
	assertEdge(t, d.Constraints, GraphEdge{Sup: "r2", Sub: "r1", Category: "return", At: "all"})

	wantGroups := [][]string{{"r1"}, {"r2"}, {"r3"}}
	if len(d.Groups) != len(wantGroups) {
		t.Fatalf("expected %d groups, got %+v", len(wantGroups), d.Groups)
	}
	for i, g := range wantGroups {
		if len(d.Groups[i]) != 1 || d.Groups[i][0] != g[0] {
			t.Fatalf("group %d = %v, want %v", i, d.Groups[i], g)
		}
	}
}

func assertEdge(t *testing.T, edges []GraphEdge, want GraphEdge) {
	t.Helper()
	for _, e := range edges {
		if e == want {
			return
		}
	}
	t.Fatalf("edge %+v missing from %+v", want, edges)
}

func TestDumpGraphWithoutGroups(t *testing.T) {
	inf := buildInference(t, outlivesBundleTOML)
	if d := DumpGraph(inf, false); d.Groups != nil {
		t.Fatalf("groups dumped without being requested: %+v", d.Groups)
	}
}

func TestDumpPath(t *testing.T) {
	inf := buildInference(t, outlivesBundleTOML)

	steps, err := DumpPath(inf, 3, 1)
	if err != nil {
		t.Fatalf("DumpPath: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %+v", steps)
	}
	if steps[0].Sup != "r3" || steps[0].Sub != "r2" || steps[0].Category != "assignment" {
		t.Fatalf("unexpected first step: %+v", steps[0])
	}
	if steps[1].Sup != "r2" || steps[1].Sub != "r1" || steps[1].Category != "return" {
		t.Fatalf("unexpected second step: %+v", steps[1])
	}
}

func TestDumpPathThroughStatic(t *testing.T) {
	inf := buildInference(t, outlivesBundleTOML)

	// static outlives everything, so a path from it is always one
	// synthetic hop
	steps, err := DumpPath(inf, 1, 3)
	if err != nil {
		t.Fatalf("DumpPath: %v", err)
	}
	if len(steps) != 1 || steps[0].Category != "internal" || steps[0].At != "all" {
		t.Fatalf("unexpected path: %+v", steps)
	}
}

func TestDumpPathMissing(t *testing.T) {
	inf := buildInference(t, disconnectedBundleTOML)

	if _, err := DumpPath(inf, 2, 1); err == nil || !strings.Contains(err.Error(), "no constraint path") {
		t.Fatalf("expected a no-path error, got %v", err)
	}
}
