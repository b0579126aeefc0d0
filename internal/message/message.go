package message

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

const (
	// FallbackMessage is used when there are no changed files to describe.
	FallbackMessage = "chore(auto): backup current work"

	// MaxHeaderLength is the longest header line produced, in characters.
	MaxHeaderLength = 72

	// MaxScopeLength bounds a scope that would otherwise leave no room for a summary.
	MaxScopeLength = 24

	// MaxListedFiles is the number of file bullets in the body.
	MaxListedFiles = 5

	// MaxComponents is the number of declaration bullets in the body.
	MaxComponents = 5

	// WorkspaceScope is used when the changed files share no directory.
	WorkspaceScope = "workspace"

	ellipsis = "..."
)

// Commit types inferred from the file list.
const (
	TypeChore = "chore"
	TypeDocs  = "docs"
	TypeTest  = "test"
	TypeFeat  = "feat"
)

var metaFiles = map[string]bool{
	"package.json":      true,
	"package-lock.json": true,
	"tsconfig.json":     true,
	".gitignore":        true,
	"go.mod":            true,
	"go.sum":            true,
	"Makefile":          true,
	"Dockerfile":        true,
	"Cargo.toml":        true,
	"pyproject.toml":    true,
}

var docExtensions = map[string]bool{
	".md":  true,
	".txt": true,
}

var sourceExtensions = map[string]bool{
	".ts":    true,
	".tsx":   true,
	".js":    true,
	".jsx":   true,
	".py":    true,
	".java":  true,
	".go":    true,
	".rs":    true,
	".rb":    true,
	".c":     true,
	".h":     true,
	".cpp":   true,
	".cs":    true,
	".kt":    true,
	".swift": true,
	".php":   true,
}

// Synthesizer builds conventional commit messages from a file list and a
// unified diff. It holds no mutable state and is safe for concurrent use.
type Synthesizer struct {
	matchers []DeclarationMatcher
}

// New returns a Synthesizer that extracts declarations with the given
// matchers, tried in order. With no matchers it uses KeywordMatcher.
func New(matchers ...DeclarationMatcher) *Synthesizer {
	if len(matchers) == 0 {
		matchers = []DeclarationMatcher{KeywordMatcher{}}
	}
	return &Synthesizer{matchers: matchers}
}

var defaultSynthesizer = New()

// Generate builds a commit message with the default Synthesizer.
func Generate(files []string, diff string) string {
	return defaultSynthesizer.Generate(files, diff)
}

// Generate builds a commit message for the given changed files and diff text.
// The header never exceeds MaxHeaderLength characters.
func (s *Synthesizer) Generate(files []string, diff string) string {
	files = normalizePaths(files)
	if len(files) == 0 {
		return FallbackMessage
	}

	header := assembleHeader(inferType(files), inferScope(files), inferSummary(files))

	body := fileBullets(files)
	if components := s.declarations(diff); len(components) > 0 {
		body = append(body, "", "Modified components:")
		for _, name := range components {
			body = append(body, "- "+name)
		}
	}

	if len(body) == 0 {
		return header
	}
	return header + "\n\n" + strings.Join(body, "\n")
}

func normalizePaths(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		f = strings.TrimSpace(strings.ReplaceAll(f, `\`, "/"))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func inferType(files []string) string {
	for _, f := range files {
		if metaFiles[path.Base(f)] {
			return TypeChore
		}
	}

	allDocs := true
	for _, f := range files {
		if !docExtensions[strings.ToLower(path.Ext(f))] {
			allDocs = false
			break
		}
	}
	if allDocs {
		return TypeDocs
	}

	for _, f := range files {
		if isTestFile(path.Base(f)) {
			return TypeTest
		}
	}

	for _, f := range files {
		if sourceExtensions[strings.ToLower(path.Ext(f))] {
			return TypeFeat
		}
	}

	return TypeChore
}

func isTestFile(base string) bool {
	lower := strings.ToLower(base)
	switch {
	case strings.Contains(lower, ".test."), strings.Contains(lower, ".spec."):
		return true
	case strings.HasSuffix(lower, "_test.go"):
		return true
	case strings.HasPrefix(lower, "test_") && strings.HasSuffix(lower, ".py"):
		return true
	}
	return false
}

func inferScope(files []string) string {
	if len(files) == 1 {
		name := stem(path.Base(files[0]))
		if name == "package" {
			return "deps"
		}
		return name
	}

	dirs := make([][]string, len(files))
	for i, f := range files {
		dirs[i] = dirSegments(f)
	}

	depth := 0
	for ; depth < len(dirs[0]); depth++ {
		segment := dirs[0][depth]
		if !allShareSegment(dirs[1:], depth, segment) {
			break
		}
	}

	if depth == 0 {
		return WorkspaceScope
	}
	return dirs[0][depth-1]
}

// allShareSegment reports whether every path has segment at depth. A path
// that is too short does not match.
func allShareSegment(dirs [][]string, depth int, segment string) bool {
	for _, d := range dirs {
		if depth >= len(d) || d[depth] != segment {
			return false
		}
	}
	return true
}

// dirSegments splits the directory part of a slash-separated path, dropping
// empty and "." segments.
func dirSegments(p string) []string {
	parts := strings.Split(p, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts[:len(parts)-1] {
		if part == "" || part == "." {
			continue
		}
		segments = append(segments, part)
	}
	return segments
}

// stem strips the final extension. Dotfiles such as ".gitignore" keep their name.
func stem(base string) string {
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "" {
		return base
	}
	return name
}

func inferSummary(files []string) string {
	if len(files) == 1 {
		return "update " + path.Base(files[0])
	}
	return fmt.Sprintf("update %d files", len(files))
}

func assembleHeader(typ, scope, summary string) string {
	prefix := typ + "(" + scope + "): "
	header := prefix + summary
	if runeLen(header) <= MaxHeaderLength {
		return header
	}

	if runeLen(prefix)+len(ellipsis) > MaxHeaderLength {
		prefix = typ + "(" + truncateRunes(scope, MaxScopeLength) + "): "
		if header = prefix + summary; runeLen(header) <= MaxHeaderLength {
			return header
		}
	}

	available := MaxHeaderLength - runeLen(prefix)
	return prefix + truncateRunes(summary, available-len(ellipsis)) + ellipsis
}

func fileBullets(files []string) []string {
	var lines []string
	for i, f := range files {
		if i == MaxListedFiles {
			lines = append(lines, fmt.Sprintf("- ...and %d more", len(files)-MaxListedFiles))
			break
		}
		lines = append(lines, "- "+path.Base(f))
	}
	return lines
}

// declarations returns the unique identifiers declared on added lines, in
// first-seen order, capped at MaxComponents.
func (s *Synthesizer) declarations(diff string) []string {
	if diff == "" {
		return nil
	}

	seen := make(map[string]bool)
	var names []string
	for _, line := range strings.Split(diff, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
			continue
		}
		added := line[1:]
		for _, m := range s.matchers {
			name, ok := m.Match(added)
			if !ok {
				continue
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			break
		}
	}

	if len(names) > MaxComponents {
		names = names[:MaxComponents]
	}
	return names
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
