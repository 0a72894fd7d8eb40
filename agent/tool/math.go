package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

const (
	ToolCalculateAmount = "calculate_amount"

	maxExpressionLength = 256
)

type CalculateAmountArgs struct {
	Expression string `json:"expression" desc:"Arithmetic expression using + - * / % ^ and parentheses, e.g. 3500 * 12 * 0.08"`
}

func (a CalculateAmountArgs) Validate() error {
	_, err := Evaluate(a.Expression)
	return err
}

type CalculationResult struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
	Rounded    float64 `json:"rounded"`
}

func calculateAmount(_ context.Context, a CalculateAmountArgs, _ *contractx.Caller) (any, error) {
	value, err := Evaluate(a.Expression)
	if err != nil {
		return nil, err
	}
	return CalculationResult{
		Expression: strings.TrimSpace(a.Expression),
		Result:     value,
		Rounded:    math.Round(value*100) / 100,
	}, nil
}

// Evaluate computes an arithmetic expression. ^ is right associative and
// binds tighter than unary signs, so -2^2 is -4.
func Evaluate(expression string) (float64, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return 0, errors.New("expression is empty")
	}
	if len(expression) > maxExpressionLength {
		return 0, fmt.Errorf("expression is longer than %d characters", maxExpressionLength)
	}

	toks, err := tokenize(expression)
	if err != nil {
		return 0, err
	}
	ev := &evaluator{toks: toks}
	value, err := ev.binary(1)
	if err != nil {
		return 0, err
	}
	if ev.pos < len(ev.toks) {
		return 0, fmt.Errorf("unexpected %q at position %d", ev.toks[ev.pos].text, ev.toks[ev.pos].pos)
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, errors.New("result is not a finite number")
	}
	return value, nil
}

type tokenKind uint8

const (
	tokNumber tokenKind = iota
	tokOperator
	tokOpen
	tokClose
)

type token struct {
	kind  tokenKind
	text  string
	value float64
	pos   int
}

var precedence = map[string]int{
	"+": 1, "-": 1,
	"*": 2, "/": 2, "%": 2,
	"^": 3,
}

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		ch := s[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch == '(':
			toks = append(toks, token{kind: tokOpen, text: "(", pos: i})
			i++
		case ch == ')':
			toks = append(toks, token{kind: tokClose, text: ")", pos: i})
			i++
		case strings.IndexByte("+-*/%^", ch) >= 0:
			toks = append(toks, token{kind: tokOperator, text: string(ch), pos: i})
			i++
		case ch == '.' || (ch >= '0' && ch <= '9'):
			start := i
			for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
				i++
			}
			text := s[start:i]
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at position %d", text, start)
			}
			toks = append(toks, token{kind: tokNumber, text: text, value: v, pos: start})
		default:
			return nil, fmt.Errorf("invalid character %q at position %d", ch, i)
		}
	}
	return toks, nil
}

type evaluator struct {
	toks []token
	pos  int
}

func (e *evaluator) peek() (token, bool) {
	if e.pos >= len(e.toks) {
		return token{}, false
	}
	return e.toks[e.pos], true
}

// binary is a precedence-climbing loop over the operators at or above minPrec.
func (e *evaluator) binary(minPrec int) (float64, error) {
	lhs, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		tok, ok := e.peek()
		if !ok || tok.kind != tokOperator {
			return lhs, nil
		}
		prec := precedence[tok.text]
		if prec < minPrec {
			return lhs, nil
		}
		e.pos++

		next := prec + 1
		if tok.text == "^" {
			next = prec
		}
		rhs, err := e.binary(next)
		if err != nil {
			return 0, err
		}
		if lhs, err = apply(tok, lhs, rhs); err != nil {
			return 0, err
		}
	}
}

func (e *evaluator) unary() (float64, error) {
	tok, ok := e.peek()
	if !ok {
		return 0, errors.New("unexpected end of expression")
	}
	if tok.kind == tokOperator && (tok.text == "-" || tok.text == "+") {
		e.pos++
		v, err := e.binary(precedence["^"])
		if err != nil {
			return 0, err
		}
		if tok.text == "-" {
			return -v, nil
		}
		return v, nil
	}
	return e.operand()
}

func (e *evaluator) operand() (float64, error) {
	tok, _ := e.peek()
	switch tok.kind {
	case tokNumber:
		e.pos++
		return tok.value, nil
	case tokOpen:
		e.pos++
		v, err := e.binary(1)
		if err != nil {
			return 0, err
		}
		closing, ok := e.peek()
		if !ok || closing.kind != tokClose {
			return 0, fmt.Errorf("missing closing parenthesis for position %d", tok.pos)
		}
		e.pos++
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected %q at position %d", tok.text, tok.pos)
	}
}

func apply(op token, lhs, rhs float64) (float64, error) {
	switch op.text {
	case "+":
		return lhs + rhs, nil
	case "-":
		return lhs - rhs, nil
	case "*":
		return lhs * rhs, nil
	case "/":
		if rhs == 0 {
			return 0, fmt.Errorf("division by zero at position %d", op.pos)
		}
		return lhs / rhs, nil
	case "%":
		if rhs == 0 {
			return 0, fmt.Errorf("modulo by zero at position %d", op.pos)
		}
		return math.Mod(lhs, rhs), nil
	case "^":
		return math.Pow(lhs, rhs), nil
	}
	return 0, fmt.Errorf("unknown operator %q", op.text)
}
