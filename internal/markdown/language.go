package markdown

import "strings"

// languageNames maps the remote code-language enum to fence tags when
// rendering. Unknown codes render with a bare fence.
var languageNames = map[int]string{
	0: "PlainText", 1: "ABAP", 2: "Ada", 3: "Apache", 4: "Apex", 5: "Assembly",
	6: "Bash", 7: "CSharp", 8: "CPP", 9: "C", 10: "COBOL", 11: "CSS", 12: "CoffeeScript",
	13: "D", 14: "Dart", 15: "Delphi", 16: "Django", 17: "Dockerfile", 18: "Erlang",
	19: "Fortran", 20: "FoxPro", 21: "Go", 22: "Groovy", 23: "HTML", 24: "HTMLBars",
	25: "HTTP", 26: "Haskell", 27: "JSON", 28: "Java", 29: "JavaScript", 30: "Julia",
	31: "Kotlin", 32: "LateX", 33: "Lisp", 34: "Logo", 35: "Lua", 36: "MATLAB",
	37: "Makefile", 38: "Markdown", 39: "Nginx", 40: "Objective-C", 41: "OpenEdgeABL",
	42: "PHP", 43: "Perl", 44: "PostScript", 45: "Power Shell", 46: "Prolog",
	47: "ProtoBuf", 48: "Python", 49: "R", 50: "RPG", 51: "Ruby", 52: "Rust", 53: "SAS",
	54: "SCSS", 55: "SQL", 56: "Scala", 57: "Scheme", 58: "Scratch", 59: "Shell",
	60: "Swift", 61: "Thrift", 62: "TypeScript", 63: "VBScript", 64: "Visual Basic",
	65: "XML", 66: "YAML",
}

// languageCodes maps fence tags to the enum for uploads. This table is
// not the inverse of languageNames: the two directions use different
// mappings.
var languageCodes = map[string]int{
	"sql": 56, "java": 29, "javascript": 30, "typescript": 63, "python": 49,
	"go": 22, "bash": 7, "shell": 60, "json": 28, "yaml": 67, "xml": 66,
	"html": 24, "css": 11, "groovy": 23, "lua": 36, "markdown": 39,
	"nginx": 40, "php": 43, "c": 10, "cpp": 9, "c++": 9, "csharp": 8, "c#": 8,
	"scala": 57, "ruby": 52, "rust": 53, "r": 50, "scss": 55,
	"mermaid": 21, "plaintext": 21, "": 21,
}

const defaultLanguageCode = 21

// LanguageName returns the fence tag for a remote language code, or ""
// when the code is unknown.
func LanguageName(code int) string { return languageNames[code] }

// LanguageCode returns the remote enum value for a fence tag.
func LanguageCode(name string) int {
	if code, ok := languageCodes[strings.ToLower(name)]; ok {
		return code
	}
	return defaultLanguageCode
}

// DetectLanguage guesses a fence tag for an untagged code block, in
// fixed priority order. Returns "" when nothing matches.
func DetectLanguage(code string) string {
	ct := strings.TrimSpace(code)
	switch {
	case containsAny(ct, "CREATE TABLE", "ALTER TABLE", "INSERT INTO", "SELECT ", "DROP TABLE"):
		return "sql"
	case containsAny(ct, "@FeignClient", "public ", "private ", "interface ", "class ", "@Override", "@GetMapping", "@PostMapping", "import "):
		return "java"
	case strings.HasPrefix(ct, "{") || strings.HasPrefix(ct, "["):
		return "json"
	case containsAny(ct, "flowchart", "sequenceDiagram", "stateDiagram", "erDiagram", "gantt"):
		return "mermaid"
	case containsAny(ct, "GET /", "POST /", "PUT /", "DELETE /"):
		return "bash"
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
