package macro

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseMacro compiles macro source (e.g. "r(3, k(a).w(10))") into a
// runnable Macro tree sharing rt. Grounded on parse.py's parse(): the
// same three passes (desugar "+", strip comments/whitespace, recursive
// descent) in the same order, because the "+" desugaring only works on
// the as-typed string and must run before whitespace stripping can
// break up its "+" tokens.
func ParseMacro(code string, rt *Runtime) (*Macro, error) {
	desugared, err := handlePlusSyntax(code)
	if err != nil {
		return nil, err
	}
	cleaned := clean(desugared)

	value, err := parseRecurse(cleaned, rt, nil, 0)
	if err != nil {
		return nil, err
	}
	m, ok := value.(*Macro)
	if !ok {
		return nil, fmt.Errorf("macro: %q is not a function call", code)
	}
	m.Code = code
	return m, nil
}

// IsMacro mirrors parse.py's is_this_a_macro: a quick syntactic check
// used by the compiler to decide whether a mapping's output symbol
// should go through the macro engine instead of being a plain key.
func IsMacro(output string) bool {
	trimmed := strings.TrimSpace(output)
	if strings.Contains(trimmed, "+") {
		return true
	}
	return strings.Contains(output, "(") && strings.Contains(output, ")") && len(output) >= 4
}

// handlePlusSyntax transforms "a + b + c" into "m(a,m(b,m(c,h())))",
// the hold_keys shorthand (spec §4.7's "+ sugar for hold_keys").
func handlePlusSyntax(code string) (string, error) {
	if !strings.Contains(code, "+") {
		return code, nil
	}
	if strings.ContainsAny(code, "()") {
		return "", fmt.Errorf("macro: mixing \"+\" and function calls is unsupported: %q", code)
	}

	rawChunks := strings.Split(code, "+")
	chunks := make([]string, len(rawChunks))
	for i, c := range rawChunks {
		chunks[i] = strings.TrimSpace(c)
		if chunks[i] == "" {
			return "", fmt.Errorf("macro: invalid syntax for %q", code)
		}
	}

	var b strings.Builder
	for _, c := range chunks {
		b.WriteString("m(")
		b.WriteString(c)
		b.WriteString(",")
	}
	b.WriteString("h()")
	for range chunks {
		b.WriteString(")")
	}
	return b.String(), nil
}

// removeComments strips "# ..." to end of line, except inside "..."
// string literals.
func removeComments(code string) string {
	var out strings.Builder
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		chunks := strings.Split(line, `"`)
		for j, chunk := range chunks {
			if j > 0 {
				chunk = `"` + chunk
			}
			if j%2 == 0 && strings.Contains(chunk, "#") {
				out.WriteString(strings.SplitN(chunk, "#", 2)[0])
				break
			}
			out.WriteString(chunk)
		}
		if i < len(lines)-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}

var whitespacePattern = regexp.MustCompile(`\s`)

// removeWhitespace strips whitespace outside of "..." string literals.
func removeWhitespace(code string) string {
	var out strings.Builder
	chunks := strings.Split(code, `"`)
	for i, chunk := range chunks {
		if i%2 == 0 {
			out.WriteString(whitespacePattern.ReplaceAllString(chunk, ""))
		} else {
			out.WriteString(chunk)
		}
		if i < len(chunks)-1 {
			out.WriteString(`"`)
		}
	}
	return out.String()
}

func clean(code string) string {
	return removeWhitespace(removeComments(code))
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// extractArgs splits the inner contents of a call on top-level commas,
// i.e. commas not nested inside another call's parens or a quoted
// string.
func extractArgs(inner string) []string {
	inner = strings.TrimSpace(inner)
	var params []string
	brackets := 0
	start := 0
	inString := false

	runes := []rune(inner)
	for i, ch := range runes {
		switch ch {
		case '"':
			inString = !inString
		case '(':
			if !inString {
				brackets++
			}
		case ')':
			if !inString {
				brackets--
			}
		case ',':
			if !inString && brackets == 0 {
				params = append(params, strings.TrimSpace(string(runes[start:i])))
				start = i + 1
			}
		}
	}
	params = append(params, strings.TrimSpace(string(runes[start:])))
	return params
}

// countBrackets returns the rune position just past the closing paren
// that matches the macro's first opening paren.
func countBrackets(code string) (int, error) {
	opens := strings.Count(code, "(")
	closes := strings.Count(code, ")")
	if opens != closes {
		return 0, fmt.Errorf("macro: found %d opening and %d closing brackets in %q", opens, closes, code)
	}

	brackets := 0
	runes := []rune(code)
	for i, ch := range runes {
		switch ch {
		case '(':
			brackets++
		case ')':
			brackets--
			if brackets == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("macro: unbalanced brackets in %q", code)
}

var keywordArgPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z_0-9]*=.+`)

// splitKeywordArg splits "foo=bar" into ("foo", "bar", true), or
// ("", param, false) if param isn't a keyword argument.
func splitKeywordArg(param string) (string, string, bool) {
	if keywordArgPattern.MatchString(param) {
		parts := strings.SplitN(param, "=", 2)
		return parts[0], parts[1], true
	}
	return "", param, false
}

var callPattern = regexp.MustCompile(`^(\w+)\(`)

// parseRecurse parses one subset of macro source: a literal, a
// variable reference, a bare symbol, or a (possibly chained) function
// call. macroInstance, when non-nil, is the chain being built so far
// (so ".chained()" calls append to the same Macro rather than starting
// a new one).
func parseRecurse(code string, rt *Runtime, macroInstance *Macro, depth int) (any, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	if strings.HasPrefix(code, `"`) {
		return strings.TrimSuffix(strings.TrimPrefix(code, `"`), `"`), nil
	}

	if strings.HasPrefix(code, "$") {
		return &Variable{Name: strings.TrimPrefix(code, "$")}, nil
	}

	if isNumber(code) {
		if strings.Contains(code, ".") {
			f, _ := strconv.ParseFloat(code, 64)
			return f, nil
		}
		n, _ := strconv.Atoi(code)
		return n, nil
	}

	if match := callPattern.FindStringSubmatch(code); match != nil {
		call := match[1]
		spec, ok := functionTable[call]
		if !ok {
			return nil, fmt.Errorf("macro: unknown function %q in %q", call, code)
		}

		if macroInstance == nil {
			macroInstance = newMacro(code, rt)
		}

		position, err := countBrackets(code)
		if err != nil {
			return nil, err
		}
		inner := code[strings.Index(code, "(")+1 : position-1]

		rawArgs := extractArgs(inner)
		if len(rawArgs) == 1 && rawArgs[0] == "" {
			rawArgs = nil
		}

		var positional []any
		keyword := map[string]any{}
		seenKeyword := false
		for _, raw := range rawArgs {
			key, valueStr, isKeyword := splitKeywordArg(raw)
			parsed, err := parseRecurse(strings.TrimSpace(valueStr), rt, nil, depth+1)
			if err != nil {
				return nil, err
			}
			if !isKeyword {
				if seenKeyword {
					return nil, fmt.Errorf("macro: positional argument follows keyword argument in %q", code)
				}
				positional = append(positional, parsed)
			} else {
				if _, exists := keyword[key]; exists {
					return nil, fmt.Errorf("macro: the %q argument was specified twice in %q", key, code)
				}
				keyword[key] = parsed
				seenKeyword = true
			}
		}

		numProvided := len(rawArgs)
		if numProvided < spec.minArgs || numProvided > spec.maxArgs {
			if spec.minArgs != spec.maxArgs {
				return nil, fmt.Errorf("macro: %s takes between %d and %d, not %d parameters", call, spec.minArgs, spec.maxArgs, numProvided)
			}
			return nil, fmt.Errorf("macro: %s takes %d, not %d parameters", call, spec.minArgs, numProvided)
		}

		if err := spec.build(macroInstance, positional, keyword); err != nil {
			return nil, fmt.Errorf("macro: %q: %w", code, err)
		}

		if len(code) > position && code[position] == '.' {
			if _, err := parseRecurse(code[position+1:], rt, macroInstance, depth); err != nil {
				return nil, err
			}
		}

		return macroInstance, nil
	}

	// A bare key/button name, or a variable name as used by set(name, 1).
	return code, nil
}
