// Package filter turns catalog filter expressions into structured effects and
// applies them to decoded photos.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is returned for malformed filter expressions.
var ErrSyntax = errors.New("filter syntax error")

// OpKind names one image adjustment.
type OpKind string

const (
	Sepia      OpKind = "sepia"
	Grayscale  OpKind = "grayscale"
	Contrast   OpKind = "contrast"
	Brightness OpKind = "brightness"
	Saturate   OpKind = "saturate"
	HueRotate  OpKind = "hue-rotate"
	Blur       OpKind = "blur"
	Invert     OpKind = "invert"
	Opacity    OpKind = "opacity"
)

// defaults holds the amount used when a term has an empty argument list.
var defaults = map[OpKind]float64{
	Sepia:      1,
	Grayscale:  1,
	Contrast:   1,
	Brightness: 1,
	Saturate:   1,
	HueRotate:  0,
	Blur:       0,
	Invert:     1,
	Opacity:    1,
}

// Op is one typed adjustment. Amount is a factor for most kinds, degrees for
// HueRotate and pixels for Blur.
type Op struct {
	Kind   OpKind  `json:"op"`
	Amount float64 `json:"amount"`
}

func (o Op) String() string {
	switch o.Kind {
	case HueRotate:
		return fmt.Sprintf("%s(%sdeg)", o.Kind, formatFloat(o.Amount))
	case Blur:
		return fmt.Sprintf("%s(%spx)", o.Kind, formatFloat(o.Amount))
	default:
		return fmt.Sprintf("%s(%s)", o.Kind, formatFloat(o.Amount))
	}
}

// Effect is an ordered list of operations. Order matters; a nil or empty
// Effect means no adjustment.
type Effect []Op

// IsNone reports whether the effect leaves pixels untouched.
func (e Effect) IsNone() bool { return len(e) == 0 }

// Find returns the first operation of kind k.
func (e Effect) Find(k OpKind) (Op, bool) {
	for _, op := range e {
		if op.Kind == k {
			return op, true
		}
	}
	return Op{}, false
}

func (e Effect) String() string {
	if e.IsNone() {
		return "none"
	}
	parts := make([]string, len(e))
	for i, op := range e {
		parts[i] = op.String()
	}
	return strings.Join(parts, " ")
}

// Parse decodes a CSS-like filter expression such as
// "sepia(0.8) contrast(120%) hue-rotate(15deg) blur(0.5px)".
// The empty string and "none" parse to a nil Effect.
func Parse(expr string) (Effect, error) {
	rest := strings.TrimSpace(expr)
	if rest == "" || rest == "none" {
		return nil, nil
	}

	var e Effect
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		if open <= 0 {
			return nil, fmt.Errorf("%w: expected name(...) at %q", ErrSyntax, rest)
		}
		closing := strings.IndexByte(rest, ')')
		if closing < open {
			return nil, fmt.Errorf("%w: unterminated term %q", ErrSyntax, rest)
		}

		name := OpKind(strings.TrimSpace(rest[:open]))
		arg := strings.TrimSpace(rest[open+1 : closing])
		rest = strings.TrimSpace(rest[closing+1:])

		op, err := parseOp(name, arg)
		if err != nil {
			return nil, err
		}
		e = append(e, op)
	}

	return e, nil
}

// Check reports whether expr parses.
func Check(expr string) error {
	_, err := Parse(expr)
	return err
}

func parseOp(kind OpKind, arg string) (Op, error) {
	def, ok := defaults[kind]
	if !ok {
		return Op{}, fmt.Errorf("%w: unknown function %q", ErrSyntax, kind)
	}
	if arg == "" {
		return Op{Kind: kind, Amount: def}, nil
	}

	var (
		amount float64
		err    error
	)
	switch kind {
	case HueRotate:
		amount, err = parseAngle(arg)
	case Blur:
		amount, err = parseNumber(strings.TrimSuffix(arg, "px"))
	default:
		if pct, isPct := strings.CutSuffix(arg, "%"); isPct {
			amount, err = parseNumber(pct)
			amount /= 100
		} else {
			amount, err = parseNumber(arg)
		}
	}
	if err != nil {
		return Op{}, fmt.Errorf("%w: %s(%s): %v", ErrSyntax, kind, arg, err)
	}

	if kind != HueRotate && amount < 0 {
		return Op{}, fmt.Errorf("%w: %s(%s): negative amount", ErrSyntax, kind, arg)
	}
	switch kind {
	case Sepia, Grayscale, Invert, Opacity:
		amount = min(amount, 1)
	}

	return Op{Kind: kind, Amount: amount}, nil
}

func parseAngle(arg string) (float64, error) {
	switch {
	case strings.HasSuffix(arg, "deg"):
		return parseNumber(strings.TrimSuffix(arg, "deg"))
	case strings.HasSuffix(arg, "turn"):
		v, err := parseNumber(strings.TrimSuffix(arg, "turn"))
		return v * 360, err
	case strings.HasSuffix(arg, "rad"):
		v, err := parseNumber(strings.TrimSuffix(arg, "rad"))
		return v * 180 / 3.141592653589793, err
	default:
		return parseNumber(arg)
	}
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
