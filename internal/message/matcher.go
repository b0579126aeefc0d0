package message

import (
	"regexp"
	"strings"
)

// DeclarationMatcher extracts the identifier declared on a single added diff
// line. The line is passed without its leading '+'.
type DeclarationMatcher interface {
	Match(line string) (name string, ok bool)
}

// MatcherFunc adapts an ordinary function to DeclarationMatcher.
type MatcherFunc func(line string) (string, bool)

// Match implements DeclarationMatcher.
func (f MatcherFunc) Match(line string) (string, bool) {
	return f(line)
}

// keywordPattern recognises function, class and interface declarations in
// the JavaScript/TypeScript/Java family, with optional leading modifiers.
var keywordPattern = regexp.MustCompile(
	`^\s*(?:(?:export|default|public|private|protected|static|abstract|async)\s+)*(?:function|class|interface)\s+([A-Za-z0-9_]+)`)

// KeywordMatcher matches function, class and interface declarations.
type KeywordMatcher struct{}

// Match implements DeclarationMatcher.
func (KeywordMatcher) Match(line string) (string, bool) {
	return firstGroup(keywordPattern, line)
}

var (
	goFuncPattern = regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_][A-Za-z0-9_]*)`)
	goTypePattern = regexp.MustCompile(`^\s*type\s+([A-Za-z_][A-Za-z0-9_]*)(?:\[[^\]]*\])?\s+(?:struct|interface)\b`)
)

// GoMatcher matches Go functions, methods, and struct or interface types.
type GoMatcher struct{}

// Match implements DeclarationMatcher.
func (GoMatcher) Match(line string) (string, bool) {
	if name, ok := firstGroup(goFuncPattern, line); ok {
		return name, true
	}
	return firstGroup(goTypePattern, line)
}

func firstGroup(re *regexp.Regexp, line string) (string, bool) {
	m := re.FindStringSubmatch(line)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// Matcher names accepted by MatchersByName.
const (
	MatcherKeyword = "keyword"
	MatcherGo      = "go"
)

// MatchersByName resolves configured matcher names. Unknown names are
// returned separately so the caller can report them.
func MatchersByName(names []string) ([]DeclarationMatcher, []string) {
	var matchers []DeclarationMatcher
	var unknown []string
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case MatcherKeyword:
			matchers = append(matchers, KeywordMatcher{})
		case MatcherGo:
			matchers = append(matchers, GoMatcher{})
		default:
			unknown = append(unknown, name)
		}
	}
	return matchers, unknown
}
