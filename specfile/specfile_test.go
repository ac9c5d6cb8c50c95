package specfile

import (
	"os"
	"path/filepath"
	"testing"
)

const validDoc = `
compiler: cc
output_flag: "-o"
common_opts: ["-Wall"]
targets:
  - name: liba
    output: liba.o
    sources: [a.c]
  - name: app
    output: app
    sources: [main.c]
    deps: [liba]
`

func writeDoc(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ccm.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	return path
}

func TestLoadAndResolve(t *testing.T) {
	path := writeDoc(t, validDoc)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	spec, roots, err := doc.Resolve(4)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if spec.J != 4 {
		t.Fatalf("expected jobs override to take effect, got J=%d", spec.J)
	}
	app := spec.Target(roots[1])
	if len(app.Deps) != 1 {
		t.Fatalf("expected app to depend on liba, got deps=%v", app.Deps)
	}
}

func TestResolveRejectsUndeclaredDependency(t *testing.T) {
	const doc = `
compiler: cc
output_flag: "-o"
targets:
  - name: app
    output: app
    sources: [main.c]
    deps: [missing]
`
	path := writeDoc(t, doc)
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, _, err := d.Resolve(0); err == nil {
		t.Fatalf("expected an error for a dependency on an undeclared target")
	}
}

func TestResolveRejectsDuplicateNames(t *testing.T) {
	const doc = `
targets:
  - name: app
    output: app1
  - name: app
    output: app2
`
	path := writeDoc(t, doc)
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, _, err := d.Resolve(1); err == nil {
		t.Fatalf("expected an error for duplicate target names")
	}
}

func TestRootsByNameUnknown(t *testing.T) {
	path := writeDoc(t, validDoc)
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := d.RootsByName([]string{"nope"}); err == nil {
		t.Fatalf("expected an error resolving an unknown target name")
	}
}
