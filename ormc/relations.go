//go:build !wasm

package ormc

import (
	"sort"

	. "github.com/tinywasm/fmt"
)

// RelationInfo describes a one-to-many relation loader to generate.
type RelationInfo struct {
	ChildStruct string // e.g. "Task"
	ParentTable string // e.g. "projects"
	FKField     string // e.g. "ProjectID" (Go field name)
	FKColumn    string // e.g. "project_id" (property name)
	LoaderName  string // e.g. "ReadAllTaskByProjectID"
}

// ResolveRelations scans all parent SliceFields, finds the matching
// reference in the child struct, and appends a RelationInfo to the child.
func (o *Generator) ResolveRelations(all map[string]StructInfo) {
	var parentNames []string
	for parentName := range all {
		parentNames = append(parentNames, parentName)
	}
	sort.Strings(parentNames)

	for _, parentName := range parentNames {
		parentInfo := all[parentName]
		for _, sliceField := range parentInfo.SliceFields {
			childStructName := sliceField.ElemType
			childInfo, ok := all[childStructName]
			if !ok {
				o.log(Sprintf("Warning: relation field %s.%s points to unknown struct %s; skipping", parentName, sliceField.Name, childStructName))
				continue
			}

			fkField := findFKField(childInfo, parentInfo.TableName)
			if fkField == nil {
				o.log(Sprintf("Warning: no ref in child %s pointing to parent table %s (from %s.%s); skipping relation loader", childStructName, parentInfo.TableName, parentName, sliceField.Name))
				continue
			}

			childInfo.Relations = append(childInfo.Relations, RelationInfo{
				ChildStruct: childStructName,
				ParentTable: parentInfo.TableName,
				FKField:     fkField.Name,
				FKColumn:    fkField.ColumnName,
				LoaderName:  "ReadAll" + childStructName + "By" + fkField.Name,
			})
			all[childStructName] = childInfo
		}
	}
}

// findFKField returns the first field of child whose Ref matches parentTable.
func findFKField(child StructInfo, parentTable string) *FieldInfo {
	for i := range child.Fields {
		if child.Fields[i].Ref == parentTable {
			return &child.Fields[i]
		}
	}
	return nil
}
