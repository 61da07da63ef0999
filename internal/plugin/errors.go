package plugin

import (
	"errors"
	"fmt"
)

// ErrPluginNotFound is returned when a requested plugin is not in the catalog.
var ErrPluginNotFound = errors.New("plugin not found")

// ErrNoMetadata is returned by ReadDescriptor when a folder has no metadata file.
var ErrNoMetadata = errors.New("plugin folder has no " + MetadataFile)

// Load failure sentinels, matched with errors.Is against a *LoadError.
var (
	ErrEntryNotFound = errors.New("entry file not found")
	ErrNoEntryPoint  = errors.New("plugin has no main entry point")
	ErrImportFailure = errors.New("plugin failed to import")
)

// ErrorKind classifies a load failure.
type ErrorKind int

// Load failure kinds.
const (
	KindNotFound ErrorKind = iota + 1
	KindNoEntryPoint
	KindImportFailure
)

// String returns a string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindNoEntryPoint:
		return "no entry point"
	case KindImportFailure:
		return "import failure"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrEntryNotFound
	case KindNoEntryPoint:
		return ErrNoEntryPoint
	case KindImportFailure:
		return ErrImportFailure
	default:
		return nil
	}
}

// LoadError reports why a plugin could not be loaded or mounted.
type LoadError struct {
	Kind   ErrorKind
	Plugin string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load plugin %q: %s", e.Plugin, e.Kind)
	}
	return fmt.Sprintf("load plugin %q: %s: %v", e.Plugin, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *LoadError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf extracts the load failure kind from err.
func KindOf(err error) (ErrorKind, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return 0, false
}

func newLoadError(kind ErrorKind, plugin string, err error) *LoadError {
	return &LoadError{Kind: kind, Plugin: plugin, Err: err}
}
