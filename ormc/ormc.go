//go:build !wasm

package ormc

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	. "github.com/tinywasm/fmt"
	"github.com/tinywasm/sqliter"
)

// FieldInfo is one struct field mapped to a Model property.
type FieldInfo struct {
	Name       string   // Go field name, e.g. "FirstName"
	ColumnName string   // property name, e.g. "first_name"
	GoType     string   // e.g. "string", "[]string", "time.Time"
	TypeName   string   // catalog name, e.g. "TEXT", "ARRAY"
	Allowed    []string // allow-list literals, already rendered as Go source
	Default    string   // default literal, already rendered as Go source
	Ref        string
	RefColumn  string
	Strict     bool // the reference is enforced in DDL
}

// SliceFieldInfo records a slice-of-struct field found in a parent struct.
// Not a property; used only for relation resolution.
type SliceFieldInfo struct {
	Name     string // e.g. "Tasks"
	ElemType string // e.g. "Task"
}

type StructInfo struct {
	Name              string
	TableName         string
	PackageName       string
	Fields            []FieldInfo
	TableNameDeclared bool
	SourceFile        string
	SliceFields       []SliceFieldInfo // populated by ParseStruct; used by ResolveRelations
	Relations         []RelationInfo   // populated by ResolveRelations; used by GenerateForFile
}

// scalarTypes maps Go types to catalog names.
var scalarTypes = map[string]string{
	"string":    "TEXT",
	"int":       "INTEGER",
	"int8":      "INTEGER",
	"int16":     "INTEGER",
	"int32":     "INTEGER",
	"int64":     "INTEGER",
	"uint":      "INTEGER",
	"uint8":     "INTEGER",
	"uint16":    "INTEGER",
	"uint32":    "INTEGER",
	"uint64":    "INTEGER",
	"float32":   "REAL",
	"float64":   "REAL",
	"bool":      "BOOL",
	"time.Time": "ISO_DATE",
}

// typeExprs is the generated Go expression for each non-parameterized catalog name.
var typeExprs = map[string]string{
	"TEXT":     "sqliter.Text",
	"ENUM":     "sqliter.Enum",
	"INTEGER":  "sqliter.Integer",
	"REAL":     "sqliter.Real",
	"BOOL":     "sqliter.Bool",
	"ISO_DATE": "sqliter.Date",
}

// detectTableName scans the AST for func (X) TableName() string on structName.
// Returns the literal return value if found, "" otherwise.
func detectTableName(node *ast.File, structName string) string {
	for _, decl := range node.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok || funcDecl.Recv == nil || len(funcDecl.Recv.List) == 0 {
			continue
		}
		if funcDecl.Name.Name != "TableName" {
			continue
		}
		recvName := ""
		switch recv := funcDecl.Recv.List[0].Type.(type) {
		case *ast.Ident:
			recvName = recv.Name
		case *ast.StarExpr:
			if ident, ok := recv.X.(*ast.Ident); ok {
				recvName = ident.Name
			}
		}
		if recvName != structName {
			continue
		}
		if funcDecl.Body != nil && len(funcDecl.Body.List) == 1 {
			if ret, ok := funcDecl.Body.List[0].(*ast.ReturnStmt); ok && len(ret.Results) == 1 {
				if lit, ok := ret.Results[0].(*ast.BasicLit); ok {
					return Convert(lit.Value).TrimPrefix(`"`).TrimSuffix(`"`).String()
				}
			}
		}
	}
	return ""
}

// goTypeOf renders a field type as written in source. Slices of named
// types report isSlice and their element name.
func goTypeOf(expr ast.Expr) (typeStr string, elem string, isSlice bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, "", false
	case *ast.SelectorExpr:
		if pkgIdent, ok := t.X.(*ast.Ident); ok {
			return pkgIdent.Name + "." + t.Sel.Name, "", false
		}
	case *ast.ArrayType:
		if t.Len != nil {
			return "", "", false
		}
		if eltIdent, ok := t.Elt.(*ast.Ident); ok {
			return "[]" + eltIdent.Name, eltIdent.Name, true
		}
	}
	return "", "", false
}

// dbTagOf extracts the db:"..." struct tag value.
func dbTagOf(field *ast.Field) string {
	if field.Tag == nil {
		return ""
	}
	tagVal := Convert(field.Tag.Value).TrimPrefix("`").TrimSuffix("`").String()
	for _, p := range Convert(tagVal).Split(" ") {
		if HasPrefix(p, "db:\"") {
			return Convert(p).TrimPrefix(`db:"`).TrimSuffix(`"`).String()
		}
	}
	return ""
}

// literalFor renders a tag value as a Go literal of the catalog type.
func literalFor(typeName, raw string) string {
	switch typeName {
	case "INTEGER", "REAL", "BOOL":
		return raw
	}
	return `"` + raw + `"`
}

// ParseStruct parses a single struct from a Go file and returns its metadata.
func (o *Generator) ParseStruct(structName string, goFile string) (StructInfo, error) {
	if structName == "" {
		return StructInfo{}, Err("Please provide a struct name")
	}

	if goFile == "" {
		return StructInfo{}, Err("goFile path cannot be empty")
	}

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, goFile, nil, parser.ParseComments)
	if err != nil {
		return StructInfo{}, Err(err, "Failed to parse file")
	}

	var targetStruct *ast.StructType
	ast.Inspect(node, func(n ast.Node) bool {
		if typeSpec, ok := n.(*ast.TypeSpec); ok && typeSpec.Name.Name == structName {
			if structType, ok := typeSpec.Type.(*ast.StructType); ok {
				targetStruct = structType
				return false
			}
		}
		return targetStruct == nil
	})

	if targetStruct == nil {
		return StructInfo{}, Err("Struct not found in file")
	}

	tableName := detectTableName(node, structName)
	declared := tableName != ""
	if !declared {
		tableName = Convert(structName + "s").SnakeLow().String()
	}

	info := StructInfo{
		Name:              structName,
		TableName:         tableName,
		PackageName:       node.Name.Name,
		TableNameDeclared: declared,
	}

	for _, field := range targetStruct.Fields.List {
		if len(field.Names) == 0 {
			continue // embedded fields are not mapped
		}

		fieldName := field.Names[0].Name
		if !ast.IsExported(fieldName) {
			continue
		}

		dbTag := dbTagOf(field)
		if dbTag == "-" {
			continue
		}

		colName := Convert(fieldName).SnakeLow().String()
		if fieldName == "ID" || colName == sqliter.IDColumn {
			continue // every Model carries the injected id
		}

		typeStr, elem, isSlice := goTypeOf(field.Type)

		var typeName string
		switch {
		case isSlice && elem == "byte":
			o.log(Sprintf("Warning: []byte not supported for field %s.%s; skipping. Add db:\"-\" to suppress.", structName, fieldName))
			continue
		case isSlice && scalarTypes[elem] != "":
			typeName = "ARRAY"
		case isSlice:
			info.SliceFields = append(info.SliceFields, SliceFieldInfo{
				Name:     fieldName,
				ElemType: elem,
			})
			continue // never add to Fields, relations are not columns
		case scalarTypes[typeStr] != "":
			typeName = scalarTypes[typeStr]
		default:
			o.log(Sprintf("Warning: unsupported type %s for field %s.%s; skipping. Add db:\"-\" to suppress.", typeStr, structName, fieldName))
			continue
		}

		f := FieldInfo{
			Name:       fieldName,
			ColumnName: colName,
			GoType:     typeStr,
			TypeName:   typeName,
		}

		if dbTag != "" {
			for _, p := range Convert(dbTag).Split(",") {
				switch {
				case p == "":
				case p == "enum":
					if typeName != "TEXT" {
						return StructInfo{}, Err("enum requires a string field:", fieldName)
					}
					f.TypeName = "ENUM"
				case p == "strict":
					f.Strict = true
				case HasPrefix(p, "allow="):
					if typeName != "ARRAY" {
						return StructInfo{}, Err("allow requires a slice field:", fieldName)
					}
					for _, v := range Convert(Convert(p).TrimPrefix("allow=").String()).Split("|") {
						f.Allowed = append(f.Allowed, literalFor(scalarTypes[elem], v))
					}
				case HasPrefix(p, "default="):
					if typeName == "ARRAY" || typeName == "ISO_DATE" {
						return StructInfo{}, Err("default not supported for field:", fieldName)
					}
					f.Default = literalFor(typeName, Convert(p).TrimPrefix("default=").String())
				case HasPrefix(p, "ref="):
					refParts := Convert(Convert(p).TrimPrefix("ref=").String()).Split(":")
					f.Ref = refParts[0]
					f.RefColumn = sqliter.IDColumn
					if len(refParts) > 1 && refParts[1] != "" {
						f.RefColumn = refParts[1]
					}
				default:
					o.log(Sprintf("Warning: unknown db tag option %s on %s.%s; ignoring.", p, structName, fieldName))
				}
			}
		}
		if f.Strict && f.Ref == "" {
			return StructInfo{}, Err("strict requires ref on field:", fieldName)
		}

		info.Fields = append(info.Fields, f)
	}

	return info, nil
}

// GenerateForStruct reads the Go file and generates the sqliter bindings for a given struct name.
func (o *Generator) GenerateForStruct(structName string, goFile string) error {
	info, err := o.ParseStruct(structName, goFile)
	if err != nil {
		return err
	}
	if len(info.Fields) == 0 {
		return nil
	}
	return o.GenerateForFile([]StructInfo{info}, goFile)
}

// propertyType renders the sqliter.Type expression for f.
func propertyType(f FieldInfo) string {
	if f.TypeName != "ARRAY" {
		return typeExprs[f.TypeName]
	}
	if len(f.Allowed) == 0 {
		return "sqliter.Array(sqliter.ArrayOptions{})"
	}
	return "sqliter.Array(sqliter.ArrayOptions{Allowed: []any{" + Convert(f.Allowed).Join(", ").String() + "}})"
}

// GenerateForFile writes the sqliter bindings for all infos into one file.
func (o *Generator) GenerateForFile(infos []StructInfo, sourceFile string) error {
	if len(infos) == 0 {
		return nil
	}
	buf := Convert()

	needsContext := false
	for _, info := range infos {
		if len(info.Relations) > 0 {
			needsContext = true
		}
	}

	buf.Write("// Code generated by ormc; DO NOT EDIT.\n")
	buf.Write("// NOTE: Properties() and Record() must always list the same fields.\n")
	buf.Write(Sprintf("package %s\n\n", infos[0].PackageName))

	buf.Write("import (\n")
	if needsContext {
		buf.Write("\t\"context\"\n\n")
	}
	buf.Write("\t\"github.com/tinywasm/sqliter\"\n")
	buf.Write(")\n\n")

	for _, info := range infos {
		if !info.TableNameDeclared {
			buf.Write(Sprintf("func (m *%s) TableName() string {\n", info.Name))
			buf.Write(Sprintf("\treturn \"%s\"\n", info.TableName))
			buf.Write("}\n\n")
		}

		buf.Write(Sprintf("// %sProperties returns the sqliter schema of %s.\n", info.Name, info.Name))
		buf.Write(Sprintf("func %sProperties() []sqliter.Property {\n", info.Name))
		buf.Write("\treturn []sqliter.Property{\n")
		for _, f := range info.Fields {
			buf.Write(Sprintf("\t\t{Name: \"%s\", Type: %s", f.ColumnName, propertyType(f)))
			if f.Default != "" {
				buf.Write(Sprintf(", Default: %s", f.Default))
			}
			if f.Ref != "" {
				strict := "false"
				if f.Strict {
					strict = "true"
				}
				buf.Write(Sprintf(", Foreign: &sqliter.ForeignKey{Table: \"%s\", Column: \"%s\", Enforced: %s}", f.Ref, f.RefColumn, strict))
			}
			buf.Write("},\n")
		}
		buf.Write("\t}\n")
		buf.Write("}\n\n")

		buf.Write(Sprintf("// New%sModel builds and defines the %s Model.\n", info.Name, info.TableName))
		buf.Write(Sprintf("func New%sModel(opts ...sqliter.Option) (*sqliter.Model, error) {\n", info.Name))
		buf.Write(Sprintf("\tm := sqliter.New(\"%s\", opts...)\n", info.TableName))
		buf.Write(Sprintf("\tif err := m.Define(%sProperties()...); err != nil {\n", info.Name))
		buf.Write("\t\treturn nil, err\n")
		buf.Write("\t}\n")
		buf.Write("\treturn m, nil\n")
		buf.Write("}\n\n")

		buf.Write(Sprintf("func (m *%s) Record() sqliter.Record {\n", info.Name))
		buf.Write("\treturn sqliter.Record{\n")
		for _, f := range info.Fields {
			buf.Write(Sprintf("\t\t\"%s\": m.%s,\n", f.ColumnName, f.Name))
		}
		buf.Write("\t}\n")
		buf.Write("}\n\n")

		buf.Write(Sprintf("var %sMeta = struct {\n", info.Name))
		buf.Write("\tTableName string\n")
		for _, f := range info.Fields {
			buf.Write(Sprintf("\t%s string\n", f.Name))
		}
		buf.Write("}{\n")
		buf.Write(Sprintf("\tTableName: \"%s\",\n", info.TableName))
		for _, f := range info.Fields {
			buf.Write(Sprintf("\t%s: \"%s\",\n", f.Name, f.ColumnName))
		}
		buf.Write("}\n\n")

		for _, rel := range info.Relations {
			buf.Write(Sprintf(
				"// %s retrieves all %s records for a given parent id.\n"+
					"// Relation detected via db:\"ref=%s\".\n"+
					"func %s(ctx context.Context, m *sqliter.Model, parentID any) ([]sqliter.Record, error) {\n"+
					"\treturn m.Select(ctx, nil, sqliter.Match(sqliter.Eq(%sMeta.%s, parentID)))\n"+
					"}\n\n",
				rel.LoaderName,
				rel.ChildStruct,
				rel.ParentTable,
				rel.LoaderName,
				rel.ChildStruct, rel.FKField,
			))
		}
	}

	outName := Convert(sourceFile).TrimSuffix(".go").String() + "_sqliter.go"
	return os.WriteFile(outName, buf.Bytes(), 0644)
}

// collectAllStructs walks rootDir and returns a map of all parsed StructInfo
// keyed by struct name. Used by Run() Pass 1.
func (o *Generator) collectAllStructs() (map[string]StructInfo, []string, []string, error) {
	all := make(map[string]StructInfo)
	var structOrder []string
	var fileOrder []string
	fileSeen := make(map[string]bool)

	err := filepath.Walk(o.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			dirName := info.Name()
			if dirName == "vendor" || dirName == ".git" || dirName == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}

		fileName := info.Name()
		if fileName != "model.go" && fileName != "models.go" {
			return nil
		}

		fset := token.NewFileSet()
		node, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil // Skip unparseable files
		}

		for _, decl := range node.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				if _, ok := typeSpec.Type.(*ast.StructType); !ok {
					continue
				}
				info, err := o.ParseStruct(typeSpec.Name.Name, path)
				if err != nil {
					o.log(Sprintf("Skipping %s in %s: %v", typeSpec.Name.Name, path, err))
					continue
				}
				if len(info.Fields) == 0 {
					o.log(Sprintf("Warning: %s has no mappable fields; skipping", typeSpec.Name.Name))
					continue
				}
				info.SourceFile = path
				all[info.Name] = info
				structOrder = append(structOrder, info.Name)
				if !fileSeen[path] {
					fileSeen[path] = true
					fileOrder = append(fileOrder, path)
				}
			}
		}
		return nil
	})

	return all, structOrder, fileOrder, err
}

// generateAll groups the enriched all map by source file path and calls
// GenerateForFile once per file.
func (o *Generator) generateAll(all map[string]StructInfo, structOrder []string, fileOrder []string) error {
	byFile := make(map[string][]StructInfo)
	for _, structName := range structOrder {
		info := all[structName]
		byFile[info.SourceFile] = append(byFile[info.SourceFile], info)
	}

	for _, sourceFile := range fileOrder {
		infos := byFile[sourceFile]
		if len(infos) > 0 {
			if err := o.GenerateForFile(infos, sourceFile); err != nil {
				o.log(Sprintf("Failed to write output for %s: %v", sourceFile, err))
			}
		}
	}
	return nil
}

// Run is the entry point for the CLI tool.
func (o *Generator) Run() error {
	// Pass 1: collect all structs across all model files
	all, structOrder, fileOrder, err := o.collectAllStructs()
	if err != nil {
		return Err(err, "error walking directory")
	}
	if len(all) == 0 {
		return Err("no models found")
	}

	// Pass 2: resolve cross-struct relations
	o.ResolveRelations(all)

	// Pass 3: generate (group by source file, call GenerateForFile once per file)
	return o.generateAll(all, structOrder, fileOrder)
}
