package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/ayusman/toolsuite/internal/logging"
)

// Loader turns descriptors into loaded modules. Every call imports the entry file anew;
// nothing is cached between loads.
type Loader struct {
	registry *Registry
	executor *Executor
	preparer Preparer
	log      hclog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithRegistry sets the registry consulted for builtin entry files.
func WithRegistry(r *Registry) LoaderOption {
	return func(l *Loader) {
		l.registry = r
	}
}

// WithExecutor sets the executor used for executable entry files.
func WithExecutor(e *Executor) LoaderOption {
	return func(l *Loader) {
		l.executor = e
	}
}

// WithPreparer sets the environment preparation hook run before import.
func WithPreparer(p Preparer) LoaderOption {
	return func(l *Loader) {
		l.preparer = p
	}
}

// WithLogger sets the suite logger.
func WithLogger(log hclog.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

// NewLoader creates a new plugin loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		registry: NewRegistry(),
		executor: NewExecutor(DefaultExecTimeout),
		preparer: RequirementsChecker{},
	}

	for _, opt := range opts {
		opt(l)
	}
	l.log = logging.OrNull(l.log)

	return l
}

// Load resolves desc's entry file and imports it. Failures are *LoadError values;
// a panic raised by plugin code is recovered as KindImportFailure.
func (l *Loader) Load(desc Descriptor) (loaded Loaded, err error) {
	defer func() {
		if r := recover(); r != nil {
			loaded = nil
			err = newLoadError(KindImportFailure, desc.Name, fmt.Errorf("panic: %v", r))
		}
	}()

	path := desc.EntryPath()
	info, statErr := os.Stat(path)
	if statErr != nil || info.IsDir() {
		if statErr == nil {
			statErr = fmt.Errorf("%s is a directory", path)
		}
		return nil, newLoadError(KindNotFound, desc.Name, statErr)
	}

	if desc.Requirements != "" && l.preparer != nil {
		if err := l.preparer.Prepare(desc); err != nil {
			return nil, newLoadError(KindImportFailure, desc.Name, fmt.Errorf("prepare environment: %w", err))
		}
	}

	l.log.Debug("loading plugin", "plugin", desc.Name, "entry", path)

	switch strings.ToLower(filepath.Ext(path)) {
	case LuaExt:
		return loadLua(desc, path)
	case BuiltinExt:
		return l.loadBuiltin(desc, path)
	}

	if info.Mode()&0111 != 0 {
		return loadProcess(desc, l.executor)
	}
	return nil, newLoadError(KindImportFailure, desc.Name, errors.New("unsupported entry file "+desc.EntryFile))
}

// loadBuiltin reads the factory name from the entry file and instantiates it.
func (l *Loader) loadBuiltin(desc Descriptor, path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newLoadError(KindImportFailure, desc.Name, err)
	}

	name := strings.TrimSpace(string(data))
	factory, ok := l.registry.Lookup(name)
	if !ok {
		return nil, newLoadError(KindNoEntryPoint, desc.Name, fmt.Errorf("no builtin registered as %q", name))
	}

	module := factory(desc)
	if module == nil {
		return nil, newLoadError(KindNoEntryPoint, desc.Name, fmt.Errorf("builtin %q returned no module", name))
	}
	return module, nil
}
