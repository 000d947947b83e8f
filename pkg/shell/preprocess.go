package shell

import (
	"regexp"
	"strings"
)

// AliasLookup resolves a single alias name to its replacement text.
// Non-recursive by construction: the caller looks up exactly once per line.
type AliasLookup func(name string) (string, bool)

// EnvLookup resolves an environment variable by name.
type EnvLookup func(name string) (string, bool)

// Executor re-enters the command interpreter for command substitution.
type Executor func(line string) (string, error)

// Preprocessor runs the four ordered steps spec.md §4.2 names: brace
// expansion, alias resolution, environment expansion, and command
// substitution.
type Preprocessor struct {
	Alias AliasLookup
	Env   EnvLookup
	Exec  Executor
}

// Preprocess runs all four steps in order and returns the fully expanded
// line, ready for sequence/pipeline parsing.
func (p *Preprocessor) Preprocess(line string) (string, error) {
	tokens, err := Tokenize(line)
	if err != nil {
		return "", err
	}
	expanded := expandBraces(tokens)
	line = reassemble(expanded)

	line = p.resolveAlias(line)
	line = p.expandEnv(line)

	line, err = p.substituteCommands(line)
	if err != nil {
		return "", err
	}
	return line, nil
}

func reassemble(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		if t.Quoted {
			parts[i] = `"` + strings.ReplaceAll(t.Text, `"`, `\"`) + `"`
		} else {
			parts[i] = t.Text
		}
	}
	return strings.Join(parts, " ")
}

func (p *Preprocessor) resolveAlias(line string) string {
	if p.Alias == nil {
		return line
	}
	trimmed := strings.TrimLeft(line, " \t")
	idx := strings.IndexAny(trimmed, " \t")
	firstWord := trimmed
	remainder := ""
	if idx != -1 {
		firstWord = trimmed[:idx]
		remainder = trimmed[idx:]
	}
	if firstWord == "" {
		return line
	}
	replacement, ok := p.Alias(firstWord)
	if !ok {
		return line
	}
	return replacement + remainder
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnv substitutes $VAR / ${VAR} everywhere outside single-quoted
// regions; double quotes do not inhibit expansion, matching spec.md §4.2.
func (p *Preprocessor) expandEnv(line string) string {
	var out strings.Builder
	inSingle := false
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\'' {
			inSingle = !inSingle
			out.WriteRune(c)
			continue
		}
		if !inSingle && c == '$' {
			rest := string(runes[i:])
			loc := envVarPattern.FindStringSubmatchIndex(rest)
			if loc != nil && loc[0] == 0 {
				name := rest[loc[2]:loc[3]]
				if name == "" {
					name = rest[loc[4]:loc[5]]
				}
				value := ""
				if p.Env != nil {
					if v, ok := p.Env(name); ok {
						value = v
					}
				}
				out.WriteString(value)
				i += loc[1] - 1
				continue
			}
		}
		out.WriteRune(c)
	}
	return out.String()
}

// substituteCommands evaluates every $( ... ) group, innermost-first via
// recursion on the captured text, normalising CRLF, trimming trailing
// newlines, and collapsing remaining newlines to single spaces. A
// substitution immediately preceded by '=' is wrapped in double quotes
// (embedded '"' escaped) so it survives as a single assignment value.
func (p *Preprocessor) substituteCommands(line string) (string, error) {
	if p.Exec == nil || !strings.Contains(line, "$(") {
		return line, nil
	}
	var out strings.Builder
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '$' && i+1 < len(runes) && runes[i+1] == '(' {
			depth := 1
			j := i + 2
			for ; j < len(runes) && depth > 0; j++ {
				switch runes[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
			}
			if depth != 0 {
				out.WriteRune(runes[i])
				continue
			}
			inner := string(runes[i+2 : j-1])
			innerPreprocessed, err := p.Preprocess(inner)
			if err != nil {
				return "", err
			}
			result, err := p.Exec(innerPreprocessed)
			if err != nil {
				return "", err
			}
			result = normalizeSubstitution(result)

			precededByAssign := out.Len() > 0 && strings.HasSuffix(out.String(), "=")
			if precededByAssign {
				result = `"` + strings.ReplaceAll(result, `"`, `\"`) + `"`
			}
			out.WriteString(result)
			i = j - 1
			continue
		}
		out.WriteRune(runes[i])
	}
	return out.String(), nil
}

func normalizeSubstitution(output string) string {
	output = strings.ReplaceAll(output, "\r\n", "\n")
	output = strings.TrimRight(output, "\n")
	output = strings.ReplaceAll(output, "\n", " ")
	return output
}

// IsStandaloneAssignment reports whether every whitespace-separated token
// of the line matches ^[A-Za-z_][A-Za-z0-9_]*=, per spec.md §4.2.
var assignmentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

func IsStandaloneAssignment(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !assignmentPattern.MatchString(f) {
			return false
		}
	}
	return true
}

// ApplyAssignments splits each token on the first '=' and returns the
// resulting key/value pairs in order.
func ApplyAssignments(line string) [][2]string {
	var out [][2]string
	for _, f := range strings.Fields(line) {
		parts := strings.SplitN(f, "=", 2)
		out = append(out, [2]string{parts[0], parts[1]})
	}
	return out
}
