// Package routing maps intent categories to the specialized handler that
// should serve them.
package routing

import (
	"strings"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/intent"
)

// HandlerID identifies a specialized backend persona.
type HandlerID string

const (
	CodeWriter      HandlerID = "code-writer"
	Debugger        HandlerID = "debugger"
	Reviewer        HandlerID = "reviewer"
	DocWriter       HandlerID = "doc-writer"
	TestEngineer    HandlerID = "test-engineer"
	SysEngineer     HandlerID = "sys-engineer"
	Microservices   HandlerID = "microservices"
	DataAnalyst     HandlerID = "data-analyst"
	SecurityAuditor HandlerID = "security-auditor"
	General         HandlerID = "general"
)

// Fallback serves any category the table does not know.
const Fallback = General

var table = map[intent.Category]HandlerID{
	intent.Code:          CodeWriter,
	intent.Refactor:      CodeWriter,
	intent.Debug:         Debugger,
	intent.Review:        Reviewer,
	intent.Documentation: DocWriter,
	intent.Testing:       TestEngineer,
	intent.Architecture:  SysEngineer,
	intent.Analysis:      DataAnalyst,
	intent.Security:      SecurityAuditor,
}

// Route returns the handler for a category. Unknown categories go to the
// general handler instead of failing.
func Route(c intent.Category) HandlerID {
	if h, ok := table[c]; ok {
		return h
	}
	return Fallback
}

// Descriptor describes a handler in the catalog.
type Descriptor struct {
	ID          HandlerID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Categories  []intent.Category `json:"categories"`
}

var catalog = []Descriptor{
	{ID: CodeWriter, Name: "Code Writer", Description: "Writes and refactors source code"},
	{ID: Debugger, Name: "Debugger", Description: "Diagnoses failures and proposes fixes"},
	{ID: Reviewer, Name: "Reviewer", Description: "Reviews diffs and pull requests"},
	{ID: DocWriter, Name: "Doc Writer", Description: "Produces technical documentation"},
	{ID: TestEngineer, Name: "Test Engineer", Description: "Writes and extends test suites"},
	{ID: SysEngineer, Name: "Systems Engineer", Description: "Designs system architecture"},
	{ID: Microservices, Name: "Microservices", Description: "Service decomposition and contracts"},
	{ID: DataAnalyst, Name: "Data Analyst", Description: "Comparisons, benchmarks and tabular analysis"},
	{ID: SecurityAuditor, Name: "Security Auditor", Description: "Finds vulnerabilities and risky code"},
	{ID: General, Name: "General", Description: "General-purpose assistant"},
}

// Catalog returns every known handler with the categories routed to it.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	for i, d := range catalog {
		d.Categories = nil
		for _, c := range intent.All() {
			if table[c] == d.ID {
				d.Categories = append(d.Categories, c)
			}
		}
		out[i] = d
	}
	return out
}

// Valid reports whether h is in the catalog.
func (h HandlerID) Valid() bool {
	for _, d := range catalog {
		if d.ID == h {
			return true
		}
	}
	return false
}

func (h HandlerID) String() string {
	return string(h)
}

// Parse converts an explicit handler override into a HandlerID.
func Parse(s string) (HandlerID, bool) {
	h := HandlerID(strings.ToLower(strings.TrimSpace(s)))
	if !h.Valid() {
		return "", false
	}
	return h, true
}
