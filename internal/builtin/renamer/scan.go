package renamer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// TrailingPeriod is the target reported for names that end with a period.
const TrailingPeriod = "Trailing Period"

// Rename errors.
var (
	ErrInvalidSettings = errors.New("invalid replacement settings")
	ErrEmptyName       = errors.New("replacement leaves an empty name")
	ErrUnchanged       = errors.New("name has nothing to replace")
	ErrTargetExists    = errors.New("target name already exists")
)

// Issue is a file or folder whose name needs replacing.
type Issue struct {
	Dir    string `json:"dir"`
	Name   string `json:"name"`
	Target string `json:"target"`
}

// Path returns the issue's full path.
func (i Issue) Path() string {
	return filepath.Join(i.Dir, i.Name)
}

// Scan walks root and reports every entry below it whose name contains one of the
// illegal characters or, when trailing is set, ends with a period.
func Scan(root, illegal string, trailing bool) ([]Issue, error) {
	if illegal == "" {
		return nil, ErrInvalidSettings
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	issues := []Issue{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if target := targetOf(name, illegal, trailing); target != "" {
			issues = append(issues, Issue{Dir: filepath.Dir(path), Name: name, Target: target})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issues, nil
}

// targetOf returns the first illegal character in name, or TrailingPeriod.
func targetOf(name, illegal string, trailing bool) string {
	if i := strings.IndexAny(name, illegal); i >= 0 {
		r, _ := utf8.DecodeRuneInString(name[i:])
		return string(r)
	}
	if trailing && strings.HasSuffix(name, ".") {
		return TrailingPeriod
	}
	return ""
}

// NewName computes the replacement for name. replacement is at most one character;
// only the first character of override is used. With trailing set, names ending in a
// period lose their trailing periods (replaced by override) and other names use
// replacement. Otherwise every illegal character becomes override, or replacement when
// override is empty.
func NewName(name, illegal, replacement, override string, trailing bool) (string, error) {
	if illegal == "" || utf8.RuneCountInString(replacement) > 1 {
		return "", ErrInvalidSettings
	}
	if r, _ := utf8.DecodeRuneInString(override); r != utf8.RuneError {
		override = string(r)
	} else {
		override = ""
	}

	var result string
	switch {
	case trailing && strings.HasSuffix(name, "."):
		result = strings.TrimRight(name, ".") + override
	case trailing:
		result = sanitize(name, illegal, replacement)
	default:
		with := replacement
		if override != "" {
			with = override
		}
		result = sanitize(name, illegal, with)
	}

	if result == "" {
		return "", ErrEmptyName
	}
	if result == name {
		return "", ErrUnchanged
	}
	return result, nil
}

func sanitize(value, illegal, replacement string) string {
	for _, c := range illegal {
		value = strings.ReplaceAll(value, string(c), replacement)
	}
	return value
}

// Apply renames issue to newName in the same directory. It refuses to overwrite.
func Apply(issue Issue, newName string) (string, error) {
	newPath := filepath.Join(issue.Dir, newName)
	if _, err := os.Lstat(newPath); err == nil {
		return "", fmt.Errorf("%w: %s", ErrTargetExists, newPath)
	}
	if err := os.Rename(issue.Path(), newPath); err != nil {
		return "", err
	}
	return newPath, nil
}
