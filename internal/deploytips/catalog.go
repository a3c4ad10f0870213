// Package deploytips turns raw deployment logs into a report that pairs each
// known Salesforce error signature with a hint on how to fix it.
package deploytips

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var builtinRules []byte

// Rule maps one or more log signatures to a tip.
type Rule struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
	Tip      string   `yaml:"tip"`

	compiled []*regexp.Regexp
}

type ruleFile struct {
	Rules []*Rule `yaml:"rules"`
}

// Catalog is an ordered set of rules. Earlier rules are reported first.
type Catalog struct {
	rules []*Rule
}

var placeholder = regexp.MustCompile(`\{(\d+)\}`)

// DefaultCatalog returns the built-in rules.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(builtinRules)
}

// ParseCatalog parses a YAML rule document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tip rules: %w", err)
	}
	for _, r := range f.Rules {
		if err := r.compile(); err != nil {
			return nil, err
		}
	}
	return &Catalog{rules: f.Rules}, nil
}

// LoadCatalog returns the built-in rules extended with the rules in extraPath.
// An empty extraPath returns the built-in rules alone.
func LoadCatalog(extraPath string) (*Catalog, error) {
	c, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	if extraPath == "" {
		return c, nil
	}
	data, err := os.ReadFile(extraPath)
	if err != nil {
		return nil, fmt.Errorf("reading tip rules %s: %w", extraPath, err)
	}
	extra, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", extraPath, err)
	}
	c.rules = append(c.rules, extra.rules...)
	return c, nil
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

func (r *Rule) compile() error {
	if r.Name == "" {
		return fmt.Errorf("tip rule without a name")
	}
	if len(r.Patterns) == 0 {
		return fmt.Errorf("tip rule %q has no patterns", r.Name)
	}
	r.compiled = make([]*regexp.Regexp, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("tip rule %q: compiling %q: %w", r.Name, p, err)
		}
		r.compiled = append(r.compiled, re)
	}
	return nil
}

// match returns the rendered tip when line matches one of the rule's patterns.
func (r *Rule) match(line string) (string, bool) {
	for _, re := range r.compiled {
		groups := re.FindStringSubmatch(line)
		if groups == nil {
			continue
		}
		tip := placeholder.ReplaceAllStringFunc(r.Tip, func(m string) string {
			n, _ := strconv.Atoi(m[1 : len(m)-1])
			if n < len(groups) {
				return strings.TrimSpace(groups[n])
			}
			return m
		})
		return strings.TrimSpace(tip), true
	}
	return "", false
}
