// Package pages loads a document's extracted page files and combines them
// into the single text the chunking pipeline consumes.
package pages

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docquery-cli/internal/core/domain"
	"github.com/custodia-labs/docquery-cli/internal/logger"
)

// PageSeparator joins consecutive pages in the combined text.
const PageSeparator = "\n\n"

// pagePattern matches extracted page files like page1.md or page_12.md.
var pagePattern = regexp.MustCompile(`^page_?(\d+)\.(md|txt)$`)

// Document is a loaded document ready for chunking.
type Document struct {
	// Filename is the logical source file name used for chunk attribution.
	Filename string

	// CombinedText is every page concatenated in page order.
	CombinedText string

	// PageCount is how many page files contributed.
	PageCount int
}

// Load reads a document from path. A directory is treated as a set of
// extracted page files (pageN.md) combined in ascending page order; a plain
// file is read whole. The attribution filename defaults to the directory or
// file name and can be overridden with name.
func Load(path, name string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if name == "" {
		name = filepath.Base(path)
	}

	if !info.IsDir() {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return &Document{
			Filename:     name,
			CombinedText: string(content),
			PageCount:    1,
		}, nil
	}

	return loadDir(path, name)
}

// loadDir combines the page files of a directory in page-number order.
func loadDir(dir, name string) (*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	type page struct {
		number int
		file   string
	}
	var found []page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pagePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, page{number: n, file: entry.Name()})
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no page files in %s", domain.ErrInvalidInput, dir)
	}

	// Numeric order, not lexicographic: page10 follows page9.
	sort.Slice(found, func(i, j int) bool { return found[i].number < found[j].number })

	texts := make([]string, len(found))
	for i, p := range found {
		content, err := os.ReadFile(filepath.Join(dir, p.file))
		if err != nil {
			return nil, fmt.Errorf("read page %s: %w", p.file, err)
		}
		texts[i] = strings.TrimRight(string(content), "\n")
	}
	logger.Debug("Loaded %d pages from %s", len(found), dir)

	return &Document{
		Filename:     name,
		CombinedText: strings.Join(texts, PageSeparator),
		PageCount:    len(found),
	}, nil
}
