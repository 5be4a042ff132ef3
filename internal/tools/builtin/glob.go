package builtin

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// globCache memoizes compiled glob patterns across tool calls. Model-driven
// searches repeat the same handful of patterns, so a small cache is enough.
var globCache, _ = lru.New[string, *regexp.Regexp](128)

// compileGlob converts a glob pattern supporting *, ** and ? into an anchored
// regexp over slash-separated paths.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	if cached, ok := globCache.Get(pattern); ok {
		return cached, nil
	}

	var sb strings.Builder
	sb.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				i++
				// "**/" also matches zero directories.
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
					sb.WriteString("(?:.*/)?")
				} else {
					sb.WriteString(".*")
				}
			} else {
				sb.WriteString("[^/]*")
			}
		case '?':
			sb.WriteString("[^/]")
		default:
			sb.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, err
	}
	globCache.Add(pattern, re)
	return re, nil
}

// matchGlob reports whether a slash-separated relative path matches pattern.
// Patterns without a slash match against the base name as well, so "*.go"
// finds files at any depth.
func matchGlob(re *regexp.Regexp, relPath string, hasSlash bool) bool {
	if re.MatchString(relPath) {
		return true
	}
	if !hasSlash {
		if idx := strings.LastIndex(relPath, "/"); idx != -1 {
			return re.MatchString(relPath[idx+1:])
		}
	}
	return false
}
