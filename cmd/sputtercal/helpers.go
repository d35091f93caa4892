package main

import (
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/xrdlab/sputtercal/pkg/calibration"
)

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

func warnText(format string, a ...interface{}) string {
	return color.New(color.Bold, color.FgYellow).Sprintf(format, a...)
}

// targetName is the file name without directory or extension.
func targetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type loadedFile struct {
	name  string
	table *calibration.Table
}

func loadFiles(paths []string) ([]loadedFile, error) {
	files := make([]loadedFile, 0, len(paths))
	for _, p := range paths {
		t, err := calibration.Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, loadedFile{name: targetName(p), table: t})
	}
	return files, nil
}
