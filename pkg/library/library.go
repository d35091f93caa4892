// Package library loads a directory of calibration files so targets can be
// looked up by name or element.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xrdlab/sputtercal/pkg/calibration"
)

// Extensions are the file extensions picked up by Open.
var Extensions = []string{".dat", ".txt", ".cal"}

var (
	// ErrNotFound is returned when no target matches a reference.
	ErrNotFound = errors.New("target not found")

	// ErrAmbiguous is returned when an element matches more than one target.
	ErrAmbiguous = errors.New("target reference is ambiguous")
)

// Target is a named calibration table.
type Target struct {
	Name  string
	Table *calibration.Table
}

// Failure records a file that was skipped because it is malformed.
type Failure struct {
	Path string
	Err  error
}

// Library is an immutable, name-ordered set of targets.
type Library struct {
	dir      string
	targets  []Target
	byName   map[string]int
	failures []Failure
}

// New builds a library from already loaded targets.
func New(targets ...Target) *Library {
	l := &Library{byName: make(map[string]int, len(targets))}
	for _, t := range targets {
		l.add(t)
	}
	l.sort()
	return l
}

// Open loads every calibration file directly inside dir. Files failing with
// a *calibration.FormatError are skipped and reported by Failures; any other
// error aborts.
func Open(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read directory %s", dir)
	}

	l := &Library{dir: dir, byName: make(map[string]int)}
	for _, e := range entries {
		if e.IsDir() || !hasExtension(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		t, err := calibration.Load(path)
		if err != nil {
			var fe *calibration.FormatError
			if errors.As(err, &fe) {
				logrus.WithError(err).WithField("path", path).Warn("skipping malformed calibration file")
				l.failures = append(l.failures, Failure{Path: path, Err: err})
				continue
			}
			return nil, err
		}

		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if _, taken := l.byName[name]; taken {
			name = e.Name()
		}
		l.add(Target{Name: name, Table: t})
	}
	l.sort()

	logrus.WithFields(logrus.Fields{
		"dir":     dir,
		"targets": len(l.targets),
		"skipped": len(l.failures),
	}).Info("calibration library loaded")

	return l, nil
}

func hasExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (l *Library) add(t Target) {
	l.byName[t.Name] = len(l.targets)
	l.targets = append(l.targets, t)
}

func (l *Library) sort() {
	sort.SliceStable(l.targets, func(i, j int) bool {
		return l.targets[i].Name < l.targets[j].Name
	})
	for i, t := range l.targets {
		l.byName[t.Name] = i
	}
}

// Dir returns the directory the library was opened from.
func (l *Library) Dir() string {
	return l.dir
}

// Targets returns the targets ordered by name.
func (l *Library) Targets() []Target {
	return append([]Target(nil), l.targets...)
}

// Failures returns the files skipped by Open.
func (l *Library) Failures() []Failure {
	return append([]Failure(nil), l.failures...)
}

// Get returns the target with the given name.
func (l *Library) Get(name string) (Target, bool) {
	i, ok := l.byName[name]
	if !ok {
		return Target{}, false
	}
	return l.targets[i], true
}

// ByElement returns the targets for an element, compared case-insensitively.
func (l *Library) ByElement(element string) []Target {
	var out []Target
	for _, t := range l.targets {
		if strings.EqualFold(t.Table.Element(), element) {
			out = append(out, t)
		}
	}
	return out
}

// Resolve finds a target by exact name, or by element when exactly one
// target has it.
func (l *Library) Resolve(ref string) (Target, error) {
	if t, ok := l.Get(ref); ok {
		return t, nil
	}
	matches := l.ByElement(ref)
	switch len(matches) {
	case 0:
		return Target{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return Target{}, fmt.Errorf("%w: %s matches %s", ErrAmbiguous, ref, strings.Join(names, ", "))
	}
}
