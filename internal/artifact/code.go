package artifact

import (
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/intent"
)

// PlainText is the language of code whose language is unknown.
const PlainText = "plaintext"

// filenameComment matches a first-line comment naming the file, such as
// "// file: main.go" or "# filename: app.py".
var filenameComment = regexp.MustCompile(`^\s*(?://|#|--|;|<!--)\s*(?:file(?:name)?|path)\s*:\s*([^\s>]+)`)

// codeStart matches a line that opens with a token source code commonly
// starts with.
var codeStart = regexp.MustCompile(`^\s*(?:#!|<\?php|#include\b|@\w+|(?:package|import|from\s+[\w.]+\s+import|def|class|func|fn|const|let|var|function|async|export|public|private|protected|interface|struct|enum|using|namespace|module|SELECT|INSERT|UPDATE|DELETE|CREATE|WITH)\b)`)

// unfencedIntents are the categories whose responses are treated as code even
// when the handler did not fence them.
var unfencedIntents = map[intent.Category]bool{
	intent.Code:     true,
	intent.Refactor: true,
	intent.Debug:    true,
}

// ParseCodeBlocks returns one Code per fenced region of text, in source order.
//
// Accepted grammar: a line of three or more backticks (or tildes) optionally
// followed by an info string, the body, and a closing line of the same fence
// character at least as long. The first word of the info string is the
// language (lower-cased; "plaintext" when absent), the second word, if any,
// is the filename. Without a second word, a first body line of the form
// "// file: x.go" or "# filename: x.py" names the file.
//
// When c is code, refactor or debug and text has no fences at all, the whole
// text becomes a single Code after dropping any prose that precedes the first
// line starting with a recognizable code token. This is a heuristic and will
// mislabel prose-only answers as code.
func ParseCodeBlocks(text string, c intent.Category) []Code {
	fences := scanFences(text)
	if len(fences) == 0 {
		if !unfencedIntents[c] || strings.TrimSpace(text) == "" {
			return nil
		}
		return []Code{unfencedCode(text)}
	}

	out := make([]Code, 0, len(fences))
	for _, f := range fences {
		out = append(out, fencedCode(f))
	}
	return out
}

func fencedCode(f fence) Code {
	fields := strings.Fields(f.Info)
	code := Code{Code: f.Body, Language: PlainText}
	if len(fields) > 0 {
		code.Language = strings.ToLower(fields[0])
	}
	if len(fields) > 1 {
		code.Filename = fields[1]
	} else {
		code.Filename = filenameFromComment(f.Body)
	}
	return code
}

func filenameFromComment(body string) string {
	first, _, _ := strings.Cut(body, "\n")
	if m := filenameComment.FindStringSubmatch(first); m != nil {
		return m[1]
	}
	return ""
}

func unfencedCode(text string) Code {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		if codeStart.MatchString(line) {
			lines = lines[i:]
			break
		}
	}
	body := strings.TrimSpace(strings.Join(lines, "\n"))
	return Code{
		Code:     body,
		Language: guessLanguage(body),
		Filename: filenameFromComment(body),
	}
}

// guessLanguage asks chroma's lexer analysers which language body looks like.
func guessLanguage(body string) string {
	lexer := lexers.Analyse(body)
	if lexer == nil {
		return PlainText
	}
	name := strings.ToLower(lexer.Config().Name)
	if name == "" || name == "plaintext" || name == "plain text" {
		return PlainText
	}
	return name
}
