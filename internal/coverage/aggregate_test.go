package coverage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/mvp-joe/interrogate/internal/coverage/extraction"
	"github.com/mvp-joe/interrogate/internal/coverage/parsers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for scoring and folding:
// - Scenario A: full.py is 18/18 covered at 100%
// - Scenario B: partial.py counts every unit and only the documented ones as covered
// - Scenario C: ignoring private and semiprivate names shrinks the total by exactly those units
// - Scenario D: google style covers an undocumented __init__ of a documented class
// - Scenario E: a whitelisted semiprivate method survives the private/semiprivate ignores
// - Google merge is symmetric: a documented __init__ covers its class
// - Sphinx style scores class and __init__ independently
// - Score does not mutate the walker output
// - total == covered + missing and missing >= 0 for every result
// - Nodes are ordered by line with parents ahead of children
// - Tally.Combine is associative and commutative with the zero tally as identity
// - A file with no in-scope units is vacuously 100%
// - Fold orders files and errors by name regardless of input order

func walkFixture(t *testing.T, path string) []extraction.Unit {
	t.Helper()

	source, err := os.ReadFile(path)
	require.NoError(t, err)
	units, err := parsers.NewPythonWalker().Walk(context.Background(), path, source)
	require.NoError(t, err)
	return units
}

func assertTally(t *testing.T, got Tally, total, covered int) {
	t.Helper()
	assert.Equal(t, total, got.Total, "total")
	assert.Equal(t, covered, got.Covered, "covered")
	assert.Equal(t, total-covered, got.Missing(), "missing")
	assert.GreaterOrEqual(t, got.Missing(), 0)
}

func TestScore_ScenarioA_FullyDocumented(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	result := Score("full.py", walkFixture(t, "testdata/sample/full.py"), &opts)

	assertTally(t, result.Tally, 18, 18)
	assert.Equal(t, 100.0, result.Percent())
	assert.Zero(t, result.Skipped)
}

func TestScore_ScenarioB_PartiallyDocumented(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	result := Score("partial.py", walkFixture(t, "testdata/sample/partial.py"), &opts)

	assertTally(t, result.Tally, 22, 7)
	assert.Greater(t, result.Percent(), 0.0)
	assert.Less(t, result.Percent(), 100.0)

	var covered []string
	for _, n := range result.Nodes {
		if n.Covered {
			covered = append(covered, n.QualName)
		}
	}
	assert.Equal(t, []string{
		"partial.py",
		"Foo",
		"Foo.__init__",
		"Foo.__str__",
		"Foo._semiprivate_documented",
		"documented_top_level_func",
		"documented_top_level_func.documented_inner_func",
	}, covered)
}

func TestScore_ScenarioC_IgnorePrivateNames(t *testing.T) {
	t.Parallel()

	units := walkFixture(t, "testdata/sample/partial.py")

	base := DefaultOptions()
	before := Score("partial.py", units, &base)

	opts := DefaultOptions()
	opts.IgnorePrivate = true
	opts.IgnoreSemiprivate = true
	after := Score("partial.py", units, &opts)

	removed := 0
	for _, u := range units {
		if u.Kind != extraction.KindModule && (extraction.IsPrivate(u.Name) || extraction.IsSemiprivate(u.Name)) {
			removed++
		}
	}
	assert.Equal(t, 5, removed)
	assert.Equal(t, before.Total-removed, after.Total)
	assert.Equal(t, removed, after.Skipped)
	assertTally(t, after.Tally, 17, 6)
}

func TestScore_IgnoreNestedFunctions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.IgnoreNestedFunctions = true
	result := Score("partial.py", walkFixture(t, "testdata/sample/partial.py"), &opts)

	assertTally(t, result.Tally, 20, 6)
	assert.Equal(t, 2, result.Skipped)
}

func TestScore_ScenarioD_GoogleStyle(t *testing.T) {
	t.Parallel()

	units := walkFixture(t, "testdata/edge/decorated.py")

	sphinx := DefaultOptions()
	sphinxResult := Score("decorated.py", units, &sphinx)
	assertTally(t, sphinxResult.Tally, 16, 6)

	google := DefaultOptions()
	google.Style = StyleGoogle
	googleResult := Score("decorated.py", units, &google)
	assertTally(t, googleResult.Tally, 16, 8)

	covered := map[string]bool{}
	for _, n := range googleResult.Nodes {
		if n.Kind != extraction.KindModule && (n.QualName == "Shape" || n.QualName == "Shape.__init__" ||
			n.QualName == "Plain" || n.QualName == "Plain.__init__") {
			covered[n.QualName] = n.Covered
		}
	}
	assert.Equal(t, map[string]bool{
		"Shape":          true,
		"Shape.__init__": true,
		"Plain":          true,
		"Plain.__init__": true,
	}, covered)

	for _, n := range sphinxResult.Nodes {
		switch n.QualName {
		case "Shape.__init__", "Plain":
			assert.False(t, n.Covered, "sphinx scores %s on its own docstring", n.QualName)
		}
	}
}

func TestScore_ScenarioE_WhitelistBeatsIgnore(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.IgnorePrivate = true
	opts.IgnoreSemiprivate = true
	opts.WhitelistRegex = []*regexp.Regexp{regexp.MustCompile("^_private_but_wanted$")}

	result := Score("decorated.py", walkFixture(t, "testdata/edge/decorated.py"), &opts)

	var found *extraction.Unit
	for i := range result.Nodes {
		if result.Nodes[i].Name == "_private_but_wanted" {
			found = &result.Nodes[i]
		}
	}
	require.NotNil(t, found, "whitelisted unit must be scored")
	assert.False(t, found.Covered)
	assertTally(t, result.Tally, 16, 6)
}

func TestApplyStyle_GoogleMerge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		classDoc  bool
		initDoc   bool
		wantMerge bool
	}{
		{"neither", false, false, false},
		{"class only", true, false, true},
		{"init only", false, true, true},
		{"both", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			units := []extraction.Unit{
				{Name: "m.py", Kind: extraction.KindModule, Parent: -1},
				{Name: "C", Kind: extraction.KindClass, Parent: 0, HasDoc: tt.classDoc},
				{Name: "__init__", Kind: extraction.KindMethod, Parent: 1, HasDoc: tt.initDoc},
				{Name: "other", Kind: extraction.KindMethod, Parent: 1},
			}

			ApplyStyle(units, StyleGoogle)
			assert.Equal(t, tt.wantMerge, units[1].Covered)
			assert.Equal(t, units[1].Covered, units[2].Covered)
			assert.False(t, units[3].Covered)

			ApplyStyle(units, StyleSphinx)
			assert.Equal(t, tt.classDoc, units[1].Covered)
			assert.Equal(t, tt.initDoc, units[2].Covered)
		})
	}
}

func TestApplyStyle_GoogleIgnoresModuleLevelInit(t *testing.T) {
	t.Parallel()

	units := []extraction.Unit{
		{Name: "m.py", Kind: extraction.KindModule, Parent: -1, HasDoc: true},
		{Name: "__init__", Kind: extraction.KindFunction, Parent: 0},
	}
	ApplyStyle(units, StyleGoogle)
	assert.False(t, units[1].Covered)
}

func TestScore_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	units := walkFixture(t, "testdata/edge/decorated.py")
	snapshot := make([]extraction.Unit, len(units))
	copy(snapshot, units)

	opts := DefaultOptions()
	opts.Style = StyleGoogle
	opts.IgnoreSetters = true
	Score("decorated.py", units, &opts)

	assert.Equal(t, snapshot, units)
}

func TestScore_NodesOrderedByLine(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	result := Score("partial.py", walkFixture(t, "testdata/sample/partial.py"), &opts)

	for i := 1; i < len(result.Nodes); i++ {
		assert.LessOrEqual(t, result.Nodes[i-1].Line, result.Nodes[i].Line)
	}
	assert.Equal(t, extraction.KindModule, result.Nodes[0].Kind)
}

func TestScore_VacuousCoverage(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.IgnoreModule = true
	result := Score("empty.py", walkFixture(t, "testdata/sample/empty.py"), &opts)

	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 100.0, result.Percent())
	assert.Empty(t, result.Nodes)
}

func TestTally_Combine(t *testing.T) {
	t.Parallel()

	a := Tally{Total: 18, Covered: 18}
	b := Tally{Total: 22, Covered: 7, Skipped: 3}
	c := Tally{Total: 5, Covered: 1, Skipped: 1}

	assert.Equal(t, a.Combine(b).Combine(c), a.Combine(b.Combine(c)), "associative")
	assert.Equal(t, a.Combine(b), b.Combine(a), "commutative")
	assert.Equal(t, a, a.Combine(Tally{}), "identity")

	sum := a.Combine(b).Combine(c)
	assert.Equal(t, Tally{Total: 45, Covered: 26, Skipped: 4}, sum)
	assert.InDelta(t, 57.777, sum.Percent(), 0.001)
	assert.Equal(t, 100.0, Tally{}.Percent())
}

func TestFold_DeterministicOrder(t *testing.T) {
	t.Parallel()

	files := []FileResult{
		{Filename: "b.py", Tally: Tally{Total: 2, Covered: 1}},
		{Filename: "a.py", Tally: Tally{Total: 3, Covered: 3}},
		{Filename: "c.py", Tally: Tally{Total: 0}},
	}
	errs := []FileError{
		{Filename: "z.py", Message: "line 1: invalid syntax"},
		{Filename: "y.py", Message: "line 2: invalid syntax"},
	}

	forward := Fold(files, errs)
	reversed := Fold([]FileResult{files[2], files[0], files[1]}, []FileError{errs[1], errs[0]})

	assert.Equal(t, forward, reversed)
	assert.Equal(t, "a.py", forward.FileResults[0].Filename)
	assert.Equal(t, "c.py", forward.FileResults[2].Filename)
	assert.Equal(t, "y.py", forward.Errors[0].Filename)
	assertTally(t, forward.Tally, 5, 4)
	assert.Equal(t, "b.py", files[0].Filename, "input slice untouched")

	assert.True(t, forward.Passed(80))
	assert.False(t, forward.Passed(80.1))
}

func TestFold_Empty(t *testing.T) {
	t.Parallel()

	results := Fold(nil, nil)
	assert.Equal(t, 0, results.Total)
	assert.Equal(t, 100.0, results.Percent())
	assert.True(t, results.Passed(100))
	assert.Empty(t, results.FileResults)
	assert.Nil(t, results.Errors)
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	assert.NoError(t, opts.Validate())

	opts.Style = StyleGoogle
	assert.NoError(t, opts.Validate())

	opts.IgnoreInitMethod = true
	assert.ErrorIs(t, opts.Validate(), ErrConfigConflict)

	opts = DefaultOptions()
	opts.Style = "numpy"
	assert.ErrorIs(t, opts.Validate(), ErrConfigConflict)
}

func TestCompileRegexes(t *testing.T) {
	t.Parallel()

	compiled, err := CompileRegexes([]string{"^test_", "get.*"})
	require.NoError(t, err)
	assert.Len(t, compiled, 2)

	compiled, err = CompileRegexes(nil)
	require.NoError(t, err)
	assert.Nil(t, compiled)

	_, err = CompileRegexes([]string{"("})
	assert.Error(t, err)
}
