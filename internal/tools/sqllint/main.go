// Command sqllint checks that every query constant carries a unique
// "--sql <uuid>" marker, which SQLRunner logs and uses to tag failures.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlStatementPattern = regexp.MustCompile(`(?i)^\s*(--sql\b|select|insert|update|delete|with|create)\b`)
	uuidMarkerPattern   = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"internal/sqlinline"}
	}

	violations, err := run(targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		os.Exit(1)
	}
	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "sqllint: query marker violations")
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", v)
		}
		os.Exit(1)
	}
}

// run lints every non-test Go file under targets and reports missing,
// malformed and duplicated markers.
func run(targets []string) ([]violation, error) {
	var files []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, target)
			continue
		}
		err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != target && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_") || d.Name() == "vendor") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == ".go" && !strings.HasSuffix(path, "_test.go") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	var violations []violation
	seen := map[string]violation{}
	for _, path := range files {
		queries, err := queryConsts(path)
		if err != nil {
			return nil, err
		}
		for _, q := range queries {
			marker := firstLine(q.sql)
			if !uuidMarkerPattern.MatchString(marker) {
				violations = append(violations, violation{file: path, line: q.line, name: q.name, message: "missing or invalid --sql <uuid> marker"})
				continue
			}
			if prev, dup := seen[marker]; dup {
				violations = append(violations, violation{file: path, line: q.line, name: q.name, message: "marker already used by " + prev.name})
				continue
			}
			seen[marker] = violation{file: path, line: q.line, name: q.name}
		}
	}
	return violations, nil
}

type queryConst struct {
	name string
	line int
	sql  string
}

// queryConsts returns the string constants in path that hold SQL.
func queryConsts(path string) ([]queryConst, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	var out []queryConst
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, value := range vs.Values {
				bl, ok := value.(*ast.BasicLit)
				if !ok || bl.Kind != token.STRING || i >= len(vs.Names) {
					continue
				}
				raw, err := unquote(bl.Value)
				if err != nil || !sqlStatementPattern.MatchString(raw) {
					continue
				}
				out = append(out, queryConst{
					name: vs.Names[i].Name,
					line: fset.Position(bl.Pos()).Line,
					sql:  raw,
				})
			}
		}
	}
	return out, nil
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
