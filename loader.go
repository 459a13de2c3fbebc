package themeconv

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/foduucom/themeconv/core"
)

const (
	// FragmentsFile is the extractor output read from each page directory.
	FragmentsFile = "shortcodes.json"

	// OutputFile is the result file written to each page's output directory.
	OutputFile = "shortcodes.json"
)

// ErrNoDocuments is returned when an input tree holds no fragment files.
var ErrNoDocuments = errors.New("no fragment files found")

// LoadDocuments finds every <inputDir>/**/shortcodes.json and returns one
// Document per file, named after its directory relative to inputDir. Output
// goes to the same relative directory under outputDir. Files below a
// directory whose name contains "doc" (documentation pages) are skipped.
// Documents are sorted by name.
func LoadDocuments(inputDir, outputDir string) ([]core.Document, error) {
	var docs []core.Document
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != inputDir && isDocumentationDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != FragmentsFile {
			return nil
		}

		rel, err := filepath.Rel(inputDir, filepath.Dir(path))
		if err != nil {
			return err
		}
		fragments, err := LoadFragments(path)
		if err != nil {
			return err
		}
		docs = append(docs, core.Document{
			Name:       filepath.ToSlash(rel),
			Fragments:  fragments,
			OutputPath: filepath.Join(outputDir, rel, OutputFile),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoDocuments, inputDir)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// LoadFragments reads one extractor output file.
func LoadFragments(path string) ([]core.Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fragments []core.Fragment
	if err := json.Unmarshal(data, &fragments); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fragments, nil
}

func isDocumentationDir(name string) bool {
	return strings.Contains(strings.ToLower(name), "doc")
}
