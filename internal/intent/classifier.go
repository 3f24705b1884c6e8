// Package intent maps free-form prompts to a symbolic task category.
package intent

import (
	"regexp"
	"strings"
)

// Category is the task category inferred from a prompt's wording.
type Category string

const (
	Code          Category = "code"
	Refactor      Category = "refactor"
	Debug         Category = "debug"
	Review        Category = "review"
	Documentation Category = "documentation"
	Testing       Category = "testing"
	Architecture  Category = "architecture"
	Analysis      Category = "analysis"
	Security      Category = "security"
)

// Default is returned when no rule matches.
const Default = Code

var allCategories = []Category{
	Code, Refactor, Debug, Review, Documentation, Testing, Architecture, Analysis, Security,
}

// All returns every known category.
func All() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Parse converts a user-supplied name into a Category.
func Parse(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", false
	}
	return c, true
}

// Rule pairs a category with the pattern that selects it.
type Rule struct {
	Category Category
	Pattern  *regexp.Regexp
}

// rules is evaluated top to bottom and the first match wins.
// Narrow categories sit above broad ones so that "review this fix" lands on
// review and not debug, and nothing ever starves behind the code fallback.
var rules = []Rule{
	{Security, regexp.MustCompile(`(?i)\b(security|vulnerabilit(?:y|ies)|vulnerable|exploits?|cve-?\d*|xss|csrf|(?:sql\s+)?injection|owasp|pentest(?:ing)?|(?:in)?secure)\b`)},
	{Review, regexp.MustCompile(`(?i)\b(review(?:s|ing)?|pull\s+request|pr|diff|critique|feedback\s+on)\b`)},
	{Testing, regexp.MustCompile(`(?i)\b(tests?|testing|unit\s+tests?|coverage|jest|pytest|mocks?)\b`)},
	{Debug, regexp.MustCompile(`(?i)\b(debug(?:ging)?|bugs?|fix(?:es|ing)?|errors?|exceptions?|crash(?:es|ing)?|broken|not\s+working|traceback|stack\s*trace)\b`)},
	{Refactor, regexp.MustCompile(`(?i)\b(refactor(?:ing)?|clean\s*up|restructure|simplify|optimi[sz]e|rewrite)\b`)},
	{Documentation, regexp.MustCompile(`(?i)\b(document(?:ation)?|docs|readme|explain|docstrings?|tutorial|guide)\b`)},
	{Architecture, regexp.MustCompile(`(?i)\b(architecture|architect|design|system\s+design|microservices?|scalability|infrastructure|diagram)\b`)},
	{Analysis, regexp.MustCompile(`(?i)\b(analy[sz]e|analysis|compare|comparison|evaluate|benchmarks?|statistics|metrics|trade-?offs?)\b`)},
}

// Rules returns a copy of the ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns the category of the first rule whose pattern matches the
// prompt, or Default when none do.
func Classify(prompt string) Category {
	for _, r := range rules {
		if r.Pattern.MatchString(prompt) {
			return r.Category
		}
	}
	return Default
}
