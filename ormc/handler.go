//go:build !wasm

// Package ormc generates sqliter property lists and Model constructors from
// Go structs declared in model.go or models.go files.
package ormc

// Generator scans a directory tree for model structs and writes their bindings.
type Generator struct {
	logFn   func(messages ...any)
	rootDir string
}

// New creates a Generator with rootDir defaulting to ".".
func New() *Generator {
	return &Generator{rootDir: "."}
}

// SetLog sets the log function for warnings and informational messages.
// If not set, messages are silently discarded.
func (o *Generator) SetLog(fn func(messages ...any)) {
	o.logFn = fn
}

// SetRootDir sets the root directory that Run() will scan.
func (o *Generator) SetRootDir(dir string) {
	o.rootDir = dir
}

func (o *Generator) log(messages ...any) {
	if o.logFn != nil {
		o.logFn(messages...)
	}
}
