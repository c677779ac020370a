// Package expr implements the default expression evaluator for dombind.
//
// The engine treats expression evaluation as an injected capability; this
// package is one implementation of that capability, not part of the core
// contract. It is a small, sandboxed evaluator: no method calls, no
// assignment, no access to anything outside the supplied environment.
//
// Supported syntax: number, string ('...' or "..."), true/false/null
// literals; dotted identifier chains resolved into nested maps of the
// environment; unary ! and -; binary + - * / % == != < <= > >= && ||;
// ternary ?:; parentheses; and calls to environment-provided functions
// of type Func.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Func is the calling convention for functions exposed to expressions
// through the environment.
type Func func(args ...any) (any, error)

// Evaluator evaluates expressions against a flat environment map.
// It is stateless and safe to share.
type Evaluator struct{}

// New returns a ready Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Evaluate parses and evaluates the expression. Identifiers resolve against
// env; dots traverse nested map[string]any values. Missing identifiers and
// missing map keys resolve to nil rather than erroring, matching the
// loose-lookup behavior reactive conditions rely on.
func (e *Evaluator) Evaluate(expression string, env map[string]any) (any, error) {
	toks, err := lex(expression)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, env: env}
	v, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("expr: unexpected %q at offset %d", p.toks[p.pos].text, p.toks[p.pos].off)
	}
	return v, nil
}

// Truthy reports whether a value counts as true in a condition: false for
// nil, false, zero numbers, and empty strings/arrays/maps.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		if f, ok := toFloat(v); ok {
			return f != 0
		}
		return true
	}
}

type tokKind int

const (
	tokNumber tokKind = iota
	tokString
	tokIdent
	tokOp
)

type token struct {
	kind tokKind
	text string
	num  float64
	off  int
}

var twoCharOps = []string{"==", "!=", "<=", ">=", "&&", "||"}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9' || c == '.' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			start := i
			for i < len(src) && (src[i] >= '0' && src[i] <= '9' || src[i] == '.') {
				i++
			}
			f, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, fmt.Errorf("expr: bad number %q at offset %d", src[start:i], start)
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], num: f, off: start})
		case c == '"' || c == '\'':
			quote := c
			start := i
			i++
			var sb strings.Builder
			for i < len(src) && src[i] != quote {
				if src[i] == '\\' && i+1 < len(src) {
					i++
				}
				sb.WriteByte(src[i])
				i++
			}
			if i >= len(src) {
				return nil, fmt.Errorf("expr: unterminated string at offset %d", start)
			}
			i++
			toks = append(toks, token{kind: tokString, text: sb.String(), off: start})
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], off: start})
		default:
			if i+1 < len(src) {
				two := src[i : i+2]
				matched := false
				for _, op := range twoCharOps {
					if two == op {
						toks = append(toks, token{kind: tokOp, text: op, off: i})
						i += 2
						matched = true
						break
					}
				}
				if matched {
					continue
				}
			}
			switch c {
			case '+', '-', '*', '/', '%', '<', '>', '!', '?', ':', '(', ')', ',', '.', '[', ']', '{', '}':
				toks = append(toks, token{kind: tokOp, text: string(c), off: i})
				i++
			default:
				return nil, fmt.Errorf("expr: unexpected character %q at offset %d", c, i)
			}
		}
	}
	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// parser is a Pratt parser that evaluates as it parses. Expressions are
// small and evaluated rarely enough that a separate AST buys nothing.
type parser struct {
	toks []token
	pos  int
	env  map[string]any
}

// binding powers, loosest first
func bindingPower(op string) int {
	switch op {
	case "?":
		return 1
	case "||":
		return 2
	case "&&":
		return 3
	case "==", "!=":
		return 4
	case "<", "<=", ">", ">=":
		return 5
	case "+", "-":
		return 6
	case "*", "/", "%":
		return 7
	default:
		return 0
	}
}

func (p *parser) peek() (token, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return token{}, false
}

func (p *parser) expectOp(text string) error {
	t, ok := p.peek()
	if !ok || t.kind != tokOp || t.text != text {
		return fmt.Errorf("expr: expected %q", text)
	}
	p.pos++
	return nil
}

func (p *parser) parseExpr(minBP int) (any, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp {
			return left, nil
		}
		bp := bindingPower(t.text)
		if bp == 0 || bp < minBP {
			return left, nil
		}
		p.pos++
		if t.text == "?" {
			// ternary: evaluate both arms, select by condition
			thenV, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(":"); err != nil {
				return nil, err
			}
			elseV, err := p.parseExpr(bp)
			if err != nil {
				return nil, err
			}
			if Truthy(left) {
				left = thenV
			} else {
				left = elseV
			}
			continue
		}
		right, err := p.parseExpr(bp + 1)
		if err != nil {
			return nil, err
		}
		left, err = applyBinary(t.text, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseUnary() (any, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("expr: unexpected end of expression")
	}
	if t.kind == tokOp {
		switch t.text {
		case "!":
			p.pos++
			v, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return !Truthy(v), nil
		case "-":
			p.pos++
			v, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			f, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("expr: cannot negate %T", v)
			}
			return -f, nil
		case "(":
			p.pos++
			v, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return p.parsePostfix(v)
		case "[":
			// array literal, as produced by JSON substitution of state refs
			p.pos++
			var list []any
			if t, ok := p.peek(); !ok || t.kind != tokOp || t.text != "]" {
				for {
					v, err := p.parseExpr(0)
					if err != nil {
						return nil, err
					}
					list = append(list, v)
					t, ok := p.peek()
					if ok && t.kind == tokOp && t.text == "," {
						p.pos++
						continue
					}
					break
				}
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			return p.parsePostfix(list)
		case "{":
			// object literal with string keys, same provenance
			p.pos++
			obj := make(map[string]any)
			if t, ok := p.peek(); !ok || t.kind != tokOp || t.text != "}" {
				for {
					key, ok := p.peek()
					if !ok || key.kind != tokString && key.kind != tokIdent {
						return nil, fmt.Errorf("expr: expected object key")
					}
					p.pos++
					if err := p.expectOp(":"); err != nil {
						return nil, err
					}
					v, err := p.parseExpr(0)
					if err != nil {
						return nil, err
					}
					obj[key.text] = v
					t, ok := p.peek()
					if ok && t.kind == tokOp && t.text == "," {
						p.pos++
						continue
					}
					break
				}
			}
			if err := p.expectOp("}"); err != nil {
				return nil, err
			}
			return p.parsePostfix(obj)
		}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (any, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("expr: unexpected end of expression")
	}
	switch t.kind {
	case tokNumber:
		p.pos++
		return p.parsePostfix(t.num)
	case tokString:
		p.pos++
		return p.parsePostfix(t.text)
	case tokIdent:
		p.pos++
		switch t.text {
		case "true":
			return p.parsePostfix(true)
		case "false":
			return p.parsePostfix(false)
		case "null", "undefined":
			return p.parsePostfix(nil)
		}
		var v any
		if p.env != nil {
			v = p.env[t.text]
		}
		// function call on a bare identifier
		if next, ok := p.peek(); ok && next.kind == tokOp && next.text == "(" {
			return p.parseCall(t.text, v)
		}
		return p.parsePostfix(v)
	default:
		return nil, fmt.Errorf("expr: unexpected %q at offset %d", t.text, t.off)
	}
}

// parsePostfix handles member access (.name) and indexing ([i]) chains.
func (p *parser) parsePostfix(v any) (any, error) {
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp {
			return v, nil
		}
		switch t.text {
		case ".":
			p.pos++
			name, ok := p.peek()
			if !ok || name.kind != tokIdent {
				return nil, fmt.Errorf("expr: expected identifier after '.'")
			}
			p.pos++
			v = member(v, name.text)
		case "[":
			p.pos++
			idx, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			v = index(v, idx)
		default:
			return v, nil
		}
	}
}

func (p *parser) parseCall(name string, v any) (any, error) {
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	var args []any
	if t, ok := p.peek(); !ok || t.kind != tokOp || t.text != ")" {
		for {
			arg, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			t, ok := p.peek()
			if ok && t.kind == tokOp && t.text == "," {
				p.pos++
				continue
			}
			break
		}
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	fn, ok := v.(Func)
	if !ok {
		if raw, rawOK := v.(func(args ...any) (any, error)); rawOK {
			fn = raw
		} else {
			return nil, fmt.Errorf("expr: %q is not a function", name)
		}
	}
	out, err := fn(args...)
	if err != nil {
		return nil, fmt.Errorf("expr: %s: %w", name, err)
	}
	return p.parsePostfix(out)
}

func member(v any, name string) any {
	switch m := v.(type) {
	case map[string]any:
		return m[name]
	case map[string]string:
		return m[name]
	default:
		return nil
	}
}

func index(v, idx any) any {
	switch s := v.(type) {
	case []any:
		f, ok := toFloat(idx)
		if !ok {
			return nil
		}
		i := int(f)
		if i < 0 || i >= len(s) {
			return nil
		}
		return s[i]
	case map[string]any:
		if k, ok := idx.(string); ok {
			return s[k]
		}
		return nil
	default:
		return nil
	}
}

func applyBinary(op string, left, right any) (any, error) {
	switch op {
	case "&&":
		if !Truthy(left) {
			return left, nil
		}
		return right, nil
	case "||":
		if Truthy(left) {
			return left, nil
		}
		return right, nil
	case "==":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	}

	// string concatenation
	if op == "+" {
		if ls, ok := left.(string); ok {
			return ls + Stringify(right), nil
		}
		if rs, ok := right.(string); ok {
			return Stringify(left) + rs, nil
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		// ordered comparison on strings
		ls, lsOK := left.(string)
		rs, rsOK := right.(string)
		if lsOK && rsOK {
			switch op {
			case "<":
				return ls < rs, nil
			case "<=":
				return ls <= rs, nil
			case ">":
				return ls > rs, nil
			case ">=":
				return ls >= rs, nil
			}
		}
		return nil, fmt.Errorf("expr: operator %q needs numeric operands, got %T and %T", op, left, right)
	}
	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("expr: division by zero")
		}
		return lf / rf, nil
	case "%":
		if rf == 0 {
			return nil, fmt.Errorf("expr: division by zero")
		}
		return float64(int64(lf) % int64(rf)), nil
	case "<":
		return lf < rf, nil
	case "<=":
		return lf <= rf, nil
	case ">":
		return lf > rf, nil
	case ">=":
		return lf >= rf, nil
	}
	return nil, fmt.Errorf("expr: unknown operator %q", op)
}

func looseEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ab == bb
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Stringify renders a value the way the engine writes it into the view:
// nil as the empty string, whole floats without a trailing ".0", everything
// else via fmt semantics.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return Stringify(float64(t))
	default:
		if f, ok := toFloat(v); ok {
			return Stringify(f)
		}
		return fmt.Sprintf("%v", v)
	}
}
