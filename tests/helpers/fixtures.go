package helpers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompts that classify to each handler family.
const (
	CodePrompt   = "Write a Python Fibonacci function"
	DebugPrompt  = "Fix this crash in my parser"
	TablePrompt  = "Compare Postgres and MySQL"
	ReviewPrompt = "Review this pull request"
)

// CodeReply is a handler answer carrying one fenced Python snippet.
const CodeReply = "Here is an iterative version:\n\n```python\ndef fib(n):\n    a, b = 0, 1\n    for _ in range(n):\n        a, b = b, a + b\n    return a\n```\n\nIt runs in O(n)."

// TableReply is an analysis answer with a markdown table.
const TableReply = "| Feature | Postgres | MySQL |\n| --- | --- | --- |\n| JSON | jsonb | json |\n| MVCC | yes | yes |\n"

// SampleDiff is a one-file change adding a risky call.
const SampleDiff = `diff --git a/handler.py b/handler.py
--- a/handler.py
+++ b/handler.py
@@ -1,2 +1,3 @@
 def handle(req):
+    eval(req.body)
     return ok()
`

// ReviewPayload returns a reviewer reply flagging file with the given severity.
func ReviewPayload(file, severity string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"summary": "Found issues.",
		"comments": []map[string]interface{}{
			{"file": file, "line": 2, "severity": severity, "message": "untrusted input reaches eval"},
		},
	})
	return string(data)
}

// Completion renders deltas as a chat-completion event stream ending in the
// done sentinel.
func Completion(deltas ...string) string {
	var b strings.Builder
	for _, d := range deltas {
		data, _ := json.Marshal(map[string]interface{}{
			"choices": []interface{}{
				map[string]interface{}{"delta": map[string]string{"content": d}},
			},
		})
		fmt.Fprintf(&b, "data: %s\n\n", data)
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

// Chunk splits s into pieces of at most n bytes.
func Chunk(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
