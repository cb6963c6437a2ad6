package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

//go:embed entities.cue
var defaultEntities string

// Load compiles the CUE package in dir into a Model.
func Load(dir string) (*Model, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileModel(value)
}

// Parse compiles CUE source text into a Model.
func Parse(filename, src string) (*Model, error) {
	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileModel(v)
}

var defaultModel = sync.OnceValues(func() (*Model, error) {
	return Parse("entities.cue", defaultEntities)
})

// Default returns the built-in Team/Member model. It is compiled once.
func Default() (*Model, error) {
	return defaultModel()
}

// MustDefault is like Default but panics on error.
func MustDefault() *Model {
	m, err := Default()
	if err != nil {
		panic(err)
	}
	return m
}
