// Package coverage summarizes the Apex code coverage written by a deployment
// into a single result file.
package coverage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ClassCoverage is the statement coverage of one Apex class or trigger.
type ClassCoverage struct {
	Name    string  `json:"name"`
	Path    string  `json:"path"`
	Covered int     `json:"covered"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// Summary is the content of the generated result file.
type Summary struct {
	Coverage    float64         `json:"coverage"`
	Covered     int             `json:"covered"`
	Total       int             `json:"total"`
	Source      string          `json:"source"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Classes     []ClassCoverage `json:"classes"`
}

// istanbulFile is one entry of an istanbul-style coverage report.
type istanbulFile struct {
	Path string         `json:"path"`
	S    map[string]int `json:"s"`
}

// Generator reads the latest coverage report in inputDir and writes a
// summary to outputFile.
type Generator struct {
	inputDir   string
	outputFile string
	now        func() time.Time
}

// NewGenerator creates a coverage generator.
func NewGenerator(inputDir, outputFile string) *Generator {
	return &Generator{inputDir: inputDir, outputFile: outputFile, now: time.Now}
}

// OutputFile returns the summary path.
func (g *Generator) OutputFile() string {
	return g.outputFile
}

// Generate writes the summary file. It returns nil, nil when no coverage
// report exists, which is the normal case for deployments without tests.
func (g *Generator) Generate(ctx context.Context) (*Summary, error) {
	source, err := g.latestReport()
	if err != nil {
		return nil, err
	}
	if source == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("reading coverage report %s: %w", source, err)
	}

	summary, err := Summarize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	summary.Source = source
	summary.GeneratedAt = g.now().UTC()

	if err := os.MkdirAll(filepath.Dir(g.outputFile), 0755); err != nil {
		return nil, fmt.Errorf("creating coverage output dir: %w", err)
	}
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling coverage summary: %w", err)
	}
	if err := os.WriteFile(g.outputFile, append(out, '\n'), 0644); err != nil {
		return nil, fmt.Errorf("writing coverage summary %s: %w", g.outputFile, err)
	}
	return summary, nil
}

// Summarize computes per-class and total statement coverage from an
// istanbul-style JSON report.
func Summarize(data []byte) (*Summary, error) {
	var files map[string]istanbulFile
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("parsing coverage report: %w", err)
	}

	s := &Summary{Classes: make([]ClassCoverage, 0, len(files))}
	for key, f := range files {
		path := f.Path
		if path == "" {
			path = key
		}
		c := ClassCoverage{
			Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Path: path,
		}
		for _, hits := range f.S {
			c.Total++
			if hits > 0 {
				c.Covered++
			}
		}
		c.Percent = percent(c.Covered, c.Total)
		s.Covered += c.Covered
		s.Total += c.Total
		s.Classes = append(s.Classes, c)
	}
	sort.Slice(s.Classes, func(i, j int) bool {
		return s.Classes[i].Name < s.Classes[j].Name
	})
	s.Coverage = percent(s.Covered, s.Total)
	return s, nil
}

// latestReport returns the most recently modified coverage*.json under inputDir.
func (g *Generator) latestReport() (string, error) {
	var newest string
	var newestMod time.Time

	err := filepath.WalkDir(g.inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, "coverage") || filepath.Ext(name) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest, newestMod = path, info.ModTime()
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("scanning coverage dir %s: %w", g.inputDir, err)
	}
	return newest, nil
}

func percent(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(covered)/float64(total)*10000) / 100
}
