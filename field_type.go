package sqliter

// StorageClass is the physical column type a Type is stored as.
type StorageClass string

const (
	ClassInteger StorageClass = "INTEGER"
	ClassText    StorageClass = "TEXT"
	ClassReal    StorageClass = "REAL"
	// ClassVirtual marks computed properties. They have no column.
	ClassVirtual StorageClass = "VIRTUAL"
)

// Decorator is a column-level constraint emitted after the storage class.
type Decorator string

const (
	DecoratorPrimaryKey    Decorator = "PRIMARY KEY"
	DecoratorAutoIncrement Decorator = "AUTOINCREMENT"
	DecoratorUnique        Decorator = "UNIQUE"
	DecoratorNotNull       Decorator = "NOT NULL"
)

// ForeignKey links a property to a column of another table.
// Only Enforced keys reach the generated DDL; the others are informational.
type ForeignKey struct {
	Table    string
	Column   string
	Enforced bool
}

// References builds a ForeignKey pointing at column of target's table.
func References(target *Model, column string, enforced bool) *ForeignKey {
	return &ForeignKey{
		Table:    target.Name(),
		Column:   column,
		Enforced: enforced,
	}
}

// Property describes a single field of a Model.
// Declaration order is column order in the generated table.
type Property struct {
	Name        string
	Type        Type
	Default     any // Rendered as a DEFAULT clause when not nil.
	Description string
	Foreign     *ForeignKey
}
