// Package sqliter is a schema-driven object-relational mapper for SQLite.
//
// A Model is declared once from a list of properties, each carrying a Type
// from the catalog (Text, Integer, Real, Bool, Date, Array, Enum, Computed or a
// custom NewType). From that declaration the Model compiles its table
// definition, converts records to and from their stored form, rejects unknown
// or ill-typed input before it reaches storage, and generates parameterized
// SELECT, INSERT, UPDATE and DELETE statements from Args.
//
// Statements are executed by an Executor supplied by the caller; the sqlite
// sub-package provides one over database/sql.
package sqliter

// Row is one row as returned by an Executor, keyed by column name.
type Row map[string]any

// Record is an application-level object: property name to application value.
type Record map[string]any
