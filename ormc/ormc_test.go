//go:build !wasm

package ormc_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tinywasm/sqliter/ormc"
)

// fixture copies testdata/models.go into a temp dir and returns its path.
func fixture(t *testing.T, name string) string {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("testdata", "models.go"))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, src, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func generated(t *testing.T, modelFile string) string {
	t.Helper()
	content, err := os.ReadFile(strings.TrimSuffix(modelFile, ".go") + "_sqliter.go")
	if err != nil {
		t.Fatalf("expected generated file: %v", err)
	}
	return string(content)
}

func TestParseStruct(t *testing.T) {
	path := fixture(t, "models.go")

	t.Run("scalar fields map to catalog types", func(t *testing.T) {
		info, err := ormc.New().ParseStruct("User", path)
		if err != nil {
			t.Fatal(err)
		}
		if info.TableName != "users" {
			t.Errorf("expected table users, got %s", info.TableName)
		}
		want := map[string]string{
			"first_name": "TEXT",
			"email":      "TEXT",
			"score":      "REAL",
			"is_active":  "BOOL",
			"joined":     "ISO_DATE",
		}
		if len(info.Fields) != len(want) {
			t.Fatalf("expected %d fields, got %d", len(want), len(info.Fields))
		}
		for _, f := range info.Fields {
			if want[f.ColumnName] != f.TypeName {
				t.Errorf("field %s: expected %s, got %s", f.ColumnName, want[f.ColumnName], f.TypeName)
			}
			if f.ColumnName == "id" {
				t.Error("id must not be emitted")
			}
		}
	})

	t.Run("tag options", func(t *testing.T) {
		info, err := ormc.New().ParseStruct("Task", path)
		if err != nil {
			t.Fatal(err)
		}
		byName := map[string]ormc.FieldInfo{}
		for _, f := range info.Fields {
			byName[f.Name] = f
		}
		if _, ok := byName["Notes"]; ok {
			t.Error(`db:"-" field must be skipped`)
		}
		if byName["Status"].TypeName != "ENUM" {
			t.Errorf("expected ENUM, got %s", byName["Status"].TypeName)
		}
		tags := byName["Tags"]
		if tags.TypeName != "ARRAY" || len(tags.Allowed) != 2 || tags.Allowed[0] != `"home"` {
			t.Errorf("unexpected array field: %+v", tags)
		}
		if byName["Points"].TypeName != "ARRAY" {
			t.Errorf("expected ARRAY for []int, got %s", byName["Points"].TypeName)
		}
		project := byName["ProjectID"]
		if project.Ref != "project_list" || project.RefColumn != "id" || !project.Strict {
			t.Errorf("unexpected reference: %+v", project)
		}
		owner := byName["OwnerID"]
		if owner.Ref != "users" || owner.RefColumn != "id" || owner.Strict {
			t.Errorf("unexpected reference: %+v", owner)
		}
	})

	t.Run("slice of struct becomes a relation", func(t *testing.T) {
		info, err := ormc.New().ParseStruct("Project", path)
		if err != nil {
			t.Fatal(err)
		}
		if !info.TableNameDeclared || info.TableName != "project_list" {
			t.Errorf("expected declared table project_list, got %s", info.TableName)
		}
		if len(info.SliceFields) != 1 || info.SliceFields[0].ElemType != "Task" {
			t.Errorf("unexpected slice fields: %+v", info.SliceFields)
		}
	})

	t.Run("unsupported types are logged and skipped", func(t *testing.T) {
		var logged []string
		g := ormc.New()
		g.SetLog(func(messages ...any) {
			for _, m := range messages {
				logged = append(logged, fmt.Sprint(m))
			}
		})
		info, err := g.ParseStruct("Unsupp", path)
		if err != nil {
			t.Fatal(err)
		}
		if len(info.Fields) != 0 {
			t.Errorf("expected no fields, got %d", len(info.Fields))
		}
		if len(logged) == 0 {
			t.Error("expected a warning")
		}
	})

	t.Run("enum on a non-string field fails", func(t *testing.T) {
		if _, err := ormc.New().ParseStruct("BadEnum", path); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing struct fails", func(t *testing.T) {
		if _, err := ormc.New().ParseStruct("Nope", path); err == nil {
			t.Error("expected error")
		}
		if _, err := ormc.New().ParseStruct("", path); err == nil {
			t.Error("expected error for empty name")
		}
	})
}

func TestGenerateForStruct(t *testing.T) {
	path := fixture(t, "models.go")

	if err := ormc.New().GenerateForStruct("User", path); err != nil {
		t.Fatal(err)
	}
	s := generated(t, path)

	for _, want := range []string{
		"package fixtures",
		`"github.com/tinywasm/sqliter"`,
		"func (m *User) TableName() string",
		"func UserProperties() []sqliter.Property",
		`{Name: "first_name", Type: sqliter.Text, Default: "anon"},`,
		`{Name: "is_active", Type: sqliter.Bool, Default: true},`,
		`{Name: "joined", Type: sqliter.Date},`,
		"func NewUserModel(opts ...sqliter.Option) (*sqliter.Model, error)",
		`sqliter.New("users", opts...)`,
		`"email": m.Email,`,
		"var UserMeta = struct",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("generated code missing %q", want)
		}
	}
	for _, absent := range []string{"Avatar", "age", "m.ID", `"context"`} {
		if strings.Contains(s, absent) {
			t.Errorf("generated code must not contain %q", absent)
		}
	}
}

func TestGenerateForFile_Relations(t *testing.T) {
	path := fixture(t, "models.go")
	g := ormc.New()

	project, err := g.ParseStruct("Project", path)
	if err != nil {
		t.Fatal(err)
	}
	task, err := g.ParseStruct("Task", path)
	if err != nil {
		t.Fatal(err)
	}
	all := map[string]ormc.StructInfo{"Project": project, "Task": task}
	g.ResolveRelations(all)

	rels := all["Task"].Relations
	if len(rels) != 1 {
		t.Fatalf("expected 1 relation, got %d", len(rels))
	}
	if rels[0].LoaderName != "ReadAllTaskByProjectID" || rels[0].ParentTable != "project_list" {
		t.Errorf("unexpected relation: %+v", rels[0])
	}

	if err := g.GenerateForFile([]ormc.StructInfo{all["Project"], all["Task"]}, path); err != nil {
		t.Fatal(err)
	}
	s := generated(t, path)

	for _, want := range []string{
		`"context"`,
		"func ReadAllTaskByProjectID(ctx context.Context, m *sqliter.Model, parentID any) ([]sqliter.Record, error)",
		"sqliter.Match(sqliter.Eq(TaskMeta.ProjectID, parentID))",
		`{Name: "status", Type: sqliter.Enum},`,
		`sqliter.Array(sqliter.ArrayOptions{Allowed: []any{"home", "work"}})`,
		`{Name: "points", Type: sqliter.Array(sqliter.ArrayOptions{})},`,
		`Foreign: &sqliter.ForeignKey{Table: "project_list", Column: "id", Enforced: true}`,
		`Foreign: &sqliter.ForeignKey{Table: "users", Column: "id", Enforced: false}`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("generated code missing %q", want)
		}
	}
	if strings.Contains(s, "func (m *Project) TableName()") {
		t.Error("TableName() must not be generated when declared in source")
	}
}

func TestResolveRelations_MissingChild(t *testing.T) {
	path := fixture(t, "models.go")
	var logged []string
	g := ormc.New()
	g.SetLog(func(messages ...any) {
		for _, m := range messages {
			logged = append(logged, fmt.Sprint(m))
		}
	})

	orphan, err := g.ParseStruct("Orphan", path)
	if err != nil {
		t.Fatal(err)
	}
	all := map[string]ormc.StructInfo{"Orphan": orphan}
	g.ResolveRelations(all)

	found := false
	for _, l := range logged {
		if strings.Contains(l, "unknown struct Missing") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning for the unknown child, got %v", logged)
	}
}

func TestRun(t *testing.T) {
	t.Run("scans the tree and writes one file per model file", func(t *testing.T) {
		path := fixture(t, "models.go")
		g := ormc.New()
		g.SetRootDir(filepath.Dir(path))
		g.SetLog(func(...any) {})

		if err := g.Run(); err != nil {
			t.Fatalf("Run() failed: %v", err)
		}
		s := generated(t, path)
		for _, want := range []string{"func UserProperties()", "func TaskProperties()", "ReadAllTaskByProjectID"} {
			if !strings.Contains(s, want) {
				t.Errorf("Run() output missing %q", want)
			}
		}
		if strings.Contains(s, "BadEnum") || strings.Contains(s, "Unsupp") {
			t.Error("invalid structs must be skipped")
		}
	})

	t.Run("returns error when no models found", func(t *testing.T) {
		g := ormc.New()
		g.SetRootDir(t.TempDir())
		if err := g.Run(); err == nil {
			t.Error("expected error for empty directory, got nil")
		}
	})
}
