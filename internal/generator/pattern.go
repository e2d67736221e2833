package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/loomgen/loom/internal/prng"
)

// patternGenerator interprets the bounded regex-like grammar of spec.md
// §4.1 (character classes, bounded repetition, alternation), generalizing
// internal/generator/advanced.go's patternGenerator from a free-standing
// math/rand.Rand to the threaded prng.Source, and rejecting unbounded `*`/
// `+` at compile time instead of silently capping them.
type patternGenerator struct {
	p *prng.Source
}

// CompileCheckPattern walks pattern once, purely to reject unbounded `*`/
// `+` quantifiers at namespace-load time, per spec.md §4.1's "unbounded
// */+ are rejected at parse time; they must be bounded" rule.
func CompileCheckPattern(pattern string) error {
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '\\':
			i += 2
			continue
		case '[':
			end := strings.Index(pattern[i:], "]")
			if end == -1 {
				return fmt.Errorf("unclosed character class at position %d", i)
			}
			i += end + 1
			continue
		case '(':
			end := findMatchingParen(pattern[i:])
			if end == -1 {
				return fmt.Errorf("unclosed group at position %d", i)
			}
			i += end + 1
			continue
		case '*', '+':
			return fmt.Errorf("unbounded quantifier %q at position %d: repetition must be bounded (use {m,n})", string(c), i)
		}
		i++
	}
	return nil
}

func (g *patternGenerator) generate(pattern string) (string, error) {
	var result strings.Builder
	i := 0

	for i < len(pattern) {
		switch pattern[i] {
		case '\\':
			if i+1 < len(pattern) {
				char, advance := g.handleEscape(pattern[i+1:])
				result.WriteString(char)
				i += 1 + advance
			} else {
				result.WriteByte('\\')
				i++
			}
		case '[':
			end := strings.Index(pattern[i:], "]")
			if end == -1 {
				return "", fmt.Errorf("unclosed character class at position %d", i)
			}
			classContent := pattern[i+1 : i+end]
			nextPos := i + end + 1
			if nextPos < len(pattern) && isQuantifier(pattern[nextPos]) {
				quantified, advance := g.applyQuantifierWithGenerator(func() string {
					return g.handleCharClass(classContent)
				}, pattern[nextPos:])
				result.WriteString(quantified)
				i = nextPos + advance
			} else {
				result.WriteString(g.handleCharClass(classContent))
				i = nextPos
			}
		case '(':
			end := findMatchingParen(pattern[i:])
			if end == -1 {
				return "", fmt.Errorf("unclosed group at position %d", i)
			}
			groupContent := pattern[i+1 : i+end]
			generated, err := g.handleGroup(groupContent)
			if err != nil {
				return "", err
			}
			if i+end+1 < len(pattern) && isQuantifier(pattern[i+end+1]) {
				quantified, advance := g.applyQuantifier(generated, pattern[i+end+1:])
				result.WriteString(quantified)
				i += end + 1 + advance
			} else {
				result.WriteString(generated)
				i += end + 1
			}
		case '{', '}', '?':
			i++
		default:
			if i+1 < len(pattern) && isQuantifier(pattern[i+1]) {
				char := string(pattern[i])
				quantified, advance := g.applyQuantifier(char, pattern[i+1:])
				result.WriteString(quantified)
				i += 1 + advance
			} else {
				result.WriteByte(pattern[i])
				i++
			}
		}
	}

	return result.String(), nil
}

func (g *patternGenerator) handleEscape(s string) (string, int) {
	if len(s) == 0 {
		return "", 0
	}
	switch s[0] {
	case 'd':
		return string('0' + byte(g.p.IntnBetween(0, 9))), 1
	case 'w':
		chars := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_"
		return string(chars[g.p.IntnBetween(0, int64(len(chars)-1))]), 1
	case 's':
		return " ", 1
	default:
		return string(s[0]), 1
	}
}

func (g *patternGenerator) handleCharClass(class string) string {
	if len(class) == 0 {
		return ""
	}
	negated := class[0] == '^'
	if negated {
		class = class[1:]
	}

	var chars []rune
	i := 0
	for i < len(class) {
		if i+2 < len(class) && class[i+1] == '-' {
			start, end := rune(class[i]), rune(class[i+2])
			for c := start; c <= end; c++ {
				chars = append(chars, c)
			}
			i += 3
		} else {
			chars = append(chars, rune(class[i]))
			i++
		}
	}

	if negated {
		var allowed []rune
		excluded := make(map[rune]bool, len(chars))
		for _, c := range chars {
			excluded[c] = true
		}
		for c := rune(32); c < 127; c++ {
			if !excluded[c] {
				allowed = append(allowed, c)
			}
		}
		chars = allowed
	}

	if len(chars) == 0 {
		return ""
	}
	return string(chars[g.p.IntnBetween(0, int64(len(chars)-1))])
}

func (g *patternGenerator) handleGroup(content string) (string, error) {
	content = strings.TrimPrefix(content, "?:")
	if strings.Contains(content, "|") {
		alternatives := strings.Split(content, "|")
		choice := alternatives[g.p.IntnBetween(0, int64(len(alternatives)-1))]
		return g.generate(choice)
	}
	return g.generate(content)
}

func findMatchingParen(s string) int {
	depth := 0
	for i, c := range s {
		if c == '(' {
			depth++
		} else if c == ')' {
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// applyQuantifier repeats a fixed literal base string according to a
// bounded {m,n} (or {m}) quantifier. Only bounded forms reach here: `*`/`+`
// are rejected by CompileCheckPattern before generation ever starts.
func (g *patternGenerator) applyQuantifier(base string, quantifier string) (string, int) {
	return g.applyQuantifierWithGenerator(func() string { return base }, quantifier)
}

func (g *patternGenerator) applyQuantifierWithGenerator(gen func() string, quantifier string) (string, int) {
	if len(quantifier) == 0 || quantifier[0] != '{' {
		return gen(), 0
	}
	end := strings.Index(quantifier, "}")
	if end == -1 {
		return gen(), 0
	}
	min, max := parseRange(quantifier[1:end])
	count := min
	if max > min {
		count = min + int(g.p.IntnBetween(0, int64(max-min)))
	}
	var result strings.Builder
	for i := 0; i < count; i++ {
		result.WriteString(gen())
	}
	return result.String(), end + 1
}

func parseRange(rangeStr string) (int, int) {
	parts := strings.Split(rangeStr, ",")
	if len(parts) == 1 {
		n, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
		return n, n
	}
	min, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
	max, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
	if max < min {
		max = min
	}
	return min, max
}

func isQuantifier(b byte) bool { return b == '{' || b == '?' }
