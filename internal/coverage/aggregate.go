package coverage

import (
	"sort"

	"github.com/mvp-joe/interrogate/internal/coverage/extraction"
)

// ApplyStyle sets Covered on every unit from HasDoc according to style.
// units must be walker output: pre-order with valid Parent indices.
//
// Under StyleGoogle a class and the __init__ methods declared directly in it share
// one value: covered if the class or any of those initializers has a docstring.
func ApplyStyle(units []extraction.Unit, style Style) {
	for i := range units {
		units[i].Covered = units[i].HasDoc
	}
	if style != StyleGoogle {
		return
	}

	inits := make(map[int][]int)
	for i, u := range units {
		if u.Kind == extraction.KindMethod && u.IsInit() && u.Parent >= 0 {
			inits[u.Parent] = append(inits[u.Parent], i)
		}
	}

	for class, members := range inits {
		covered := units[class].HasDoc
		for _, i := range members {
			covered = covered || units[i].HasDoc
		}
		units[class].Covered = covered
		for _, i := range members {
			units[i].Covered = covered
		}
	}
}

// Score applies the docstring style and the inclusion policy to one file's units and
// tallies the survivors. The input slice is not modified.
func Score(filename string, units []extraction.Unit, opts *Options) FileResult {
	scored := make([]extraction.Unit, len(units))
	copy(scored, units)
	ApplyStyle(scored, opts.Style)

	result := FileResult{Filename: filename, Nodes: []extraction.Unit{}}
	for _, u := range scored {
		u.Path = filename
		if ok, _ := Include(u, opts); !ok {
			u.Skipped = true
			result.Skipped++
			continue
		}
		result.Nodes = append(result.Nodes, u)
		result.Total++
		if u.Covered {
			result.Covered++
		}
	}

	// The walker emits parents first, so a stable sort by line keeps parents ahead of
	// children that share a line.
	sort.SliceStable(result.Nodes, func(i, j int) bool {
		return result.Nodes[i].Line < result.Nodes[j].Line
	})
	return result
}

// Fold combines file results into run results. Files are ordered by name so the
// outcome does not depend on the order analyses finished in.
func Fold(files []FileResult, errs []FileError) *Results {
	results := &Results{
		FileResults: make([]FileResult, len(files)),
	}
	copy(results.FileResults, files)
	sort.SliceStable(results.FileResults, func(i, j int) bool {
		return results.FileResults[i].Filename < results.FileResults[j].Filename
	})

	for _, f := range results.FileResults {
		results.Tally = results.Tally.Combine(f.Tally)
	}

	if len(errs) > 0 {
		results.Errors = make([]FileError, len(errs))
		copy(results.Errors, errs)
		sort.SliceStable(results.Errors, func(i, j int) bool {
			return results.Errors[i].Filename < results.Errors[j].Filename
		})
	}
	return results
}
