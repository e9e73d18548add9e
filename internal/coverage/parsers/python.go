package parsers

import (
	"context"
	"path/filepath"

	"github.com/mvp-joe/interrogate/internal/coverage/extraction"
	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// PythonWalker turns a Python source file into the ordered list of documentable units.
type PythonWalker struct {
	*treeSitterParser
}

// NewPythonWalker creates a new Python walker.
func NewPythonWalker() *PythonWalker {
	lang := sitter.NewLanguage(python.Language())
	return &PythonWalker{
		treeSitterParser: newTreeSitterParser(lang, "python"),
	}
}

// Walk parses source and returns its units in pre-order: the module first, then every
// class and function in declaration order, parents before children.
// Name-based and decorator-based facts are recorded but nothing is filtered here.
func (w *PythonWalker) Walk(ctx context.Context, filePath string, source []byte) ([]extraction.Unit, error) {
	tree, err := w.parse(ctx, filePath, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	moduleName := filepath.Base(filePath)

	v := &pythonVisitor{
		source: source,
		path:   filePath,
		units: []extraction.Unit{{
			Name:     moduleName,
			QualName: moduleName,
			Kind:     extraction.KindModule,
			Line:     1,
			Path:     filePath,
			Level:    0,
			Parent:   -1,
			HasDoc:   hasDocstring(root, source),
		}},
	}
	v.visitChildren(root, 0)

	for i := range v.units {
		v.units[i].Covered = v.units[i].HasDoc
	}
	return v.units, nil
}

type pythonVisitor struct {
	source []byte
	path   string
	units  []extraction.Unit
}

// visitChildren descends through arbitrary statements (if/try/with/for blocks included)
// looking for definitions; parent is the index of the innermost enclosing unit.
func (v *pythonVisitor) visitChildren(node *sitter.Node, parent int) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		switch child.Kind() {
		case "class_definition", "function_definition":
			v.visitDefinition(child, nil, parent)
		case "decorated_definition":
			var decorators []string
			for _, d := range findChildrenByType(child, "decorator") {
				decorators = append(decorators, extractNodeText(d, v.source))
			}
			if def := child.ChildByFieldName("definition"); def != nil {
				v.visitDefinition(def, decorators, parent)
			}
		default:
			v.visitChildren(child, parent)
		}
	}
}

func (v *pythonVisitor) visitDefinition(node *sitter.Node, decorators []string, parent int) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := extractNodeText(nameNode, v.source)
	owner := v.units[parent]

	unit := extraction.Unit{
		Name:   name,
		Line:   nodeLine(node),
		Path:   v.path,
		Level:  owner.Level + 1,
		Parent: parent,
		Decor:  extraction.ClassifyDecorators(decorators),
	}
	if owner.Kind == extraction.KindModule {
		unit.QualName = name
	} else {
		unit.QualName = owner.QualName + "." + name
	}

	if node.Kind() == "class_definition" {
		unit.Kind = extraction.KindClass
		unit.IsNested = owner.Kind != extraction.KindModule
	} else {
		unit.Kind = extraction.KindFunction
		if owner.Kind == extraction.KindClass {
			unit.Kind = extraction.KindMethod
		}
		unit.IsNested = owner.Kind.IsCallable()
	}

	body := node.ChildByFieldName("body")
	unit.HasDoc = hasDocstring(body, v.source)

	v.units = append(v.units, unit)
	if body != nil {
		v.visitChildren(body, len(v.units)-1)
	}
}
