package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"

	"sheetchart/pkg/contracts/domain"
)

// Formula grammar: column references written as {name}, combined with
// + - * / ( ), numeric literals and whitespace. References are substituted
// with their numeric row values, the result is validated against a strict
// character whitelist, and only then parsed and evaluated. No
// user-controlled token reaches the evaluator unless every character in it
// is a bare numeral or arithmetic symbol.

var referencePattern = regexp.MustCompile(`\{([^{}]+)\}`)

// substitutedWhitelist is the post-substitution character set. Anything
// outside it (an unresolved reference, an injection attempt) aborts
// evaluation.
var substitutedWhitelist = regexp.MustCompile(`^[0-9+\-*/(). \t]*$`)

// EvaluateFormula evaluates an arithmetic formula against one row. Column
// references resolve in order: exact row key, case-insensitive row key, then
// mapping lookup by column name, label or field key. A reference that is
// missing or non-numeric at every stage fails the whole formula; the boolean
// is false for any failure, including a non-finite result.
func EvaluateFormula(formula string, row domain.RawRow, mapping domain.Mapping) (float64, bool) {
	if strings.TrimSpace(formula) == "" {
		return 0, false
	}

	resolved := true
	substituted := referencePattern.ReplaceAllStringFunc(formula, func(match string) string {
		ref := strings.TrimSpace(match[1 : len(match)-1])
		value, ok := resolveReference(ref, row, mapping)
		if !ok {
			resolved = false
			return match
		}
		// Parenthesized so negative values survive adjacent operators.
		return "(" + strconv.FormatFloat(value, 'f', -1, 64) + ")"
	})
	if !resolved {
		return 0, false
	}

	if !substitutedWhitelist.MatchString(substituted) {
		return 0, false
	}

	result, ok := evalExpression(substituted)
	if !ok {
		return 0, false
	}
	return finite(result)
}

// resolveReference finds the numeric value for one {reference}.
func resolveReference(ref string, row domain.RawRow, mapping domain.Mapping) (float64, bool) {
	// Exact key match.
	if v, ok := row[ref]; ok {
		if n, ok := ParseNumeric(v); ok {
			return n, true
		}
	}

	// Case-insensitive key match.
	for key, v := range row {
		if strings.EqualFold(key, ref) {
			if n, ok := ParseNumeric(v); ok {
				return n, true
			}
		}
	}

	// Mapping lookup: the reference may name a field's column, its display
	// label, or the field key itself.
	for field, entry := range mapping {
		if !strings.EqualFold(entry.Column, ref) &&
			!strings.EqualFold(entry.Label, ref) &&
			!strings.EqualFold(field, ref) {
			continue
		}
		if entry.IsFormula() {
			continue
		}
		if v, ok := row[entry.Column]; ok {
			if n, ok := ParseNumeric(v); ok {
				return n, true
			}
		}
	}

	return 0, false
}

// evalExpression parses and evaluates a whitelisted arithmetic expression
// with a small recursive-descent parser. Grammar:
//
//	expr   = term  { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = [ "+" | "-" ] unary | primary
//	primary = number | "(" expr ")"
func evalExpression(input string) (float64, bool) {
	p := &exprParser{input: input}
	p.skipSpace()
	value, ok := p.parseExpr()
	if !ok {
		return 0, false
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, false
	}
	return value, true
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) parseExpr() (float64, bool) {
	left, ok := p.parseTerm()
	if !ok {
		return 0, false
	}
	for {
		p.skipSpace()
		op, ok := p.peek()
		if !ok || (op != '+' && op != '-') {
			return left, true
		}
		p.pos++
		right, ok := p.parseTerm()
		if !ok {
			return 0, false
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) parseTerm() (float64, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return 0, false
	}
	for {
		p.skipSpace()
		op, ok := p.peek()
		if !ok || (op != '*' && op != '/') {
			return left, true
		}
		p.pos++
		right, ok := p.parseUnary()
		if !ok {
			return 0, false
		}
		if op == '*' {
			left *= right
		} else {
			// Division by zero surfaces as a non-finite result and is
			// rejected by the caller's finiteness check.
			left /= right
		}
	}
}

func (p *exprParser) parseUnary() (float64, bool) {
	p.skipSpace()
	if op, ok := p.peek(); ok && (op == '+' || op == '-') {
		p.pos++
		value, ok := p.parseUnary()
		if !ok {
			return 0, false
		}
		if op == '-' {
			return -value, true
		}
		return value, true
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (float64, bool) {
	p.skipSpace()
	c, ok := p.peek()
	if !ok {
		return 0, false
	}

	if c == '(' {
		p.pos++
		value, ok := p.parseExpr()
		if !ok {
			return 0, false
		}
		p.skipSpace()
		if closing, ok := p.peek(); !ok || closing != ')' {
			return 0, false
		}
		p.pos++
		return value, true
	}

	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c < '0' || c > '9') && c != '.' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return 0, false
	}
	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func (p *exprParser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}
