package filter

// Directive is a single raster-native adjustment applied while one photo is
// drawn. The zero value is "none".
type Directive struct {
	Op
}

// None is the directive that leaves pixels untouched.
var None = Directive{}

// IsNone reports whether d is the empty directive.
func (d Directive) IsNone() bool { return d.Kind == "" }

func (d Directive) String() string {
	if d.IsNone() {
		return "none"
	}
	return d.Op.String()
}

// Approximate collapses an effect to its dominant operation. Sepia wins over
// grayscale, grayscale over contrast; each maps to a fixed strength. Effects
// with none of those terms approximate to None.
func Approximate(e Effect) Directive {
	switch {
	case e.IsNone():
		return None
	case has(e, Sepia):
		return Directive{Op{Kind: Sepia, Amount: 1}}
	case has(e, Grayscale):
		return Directive{Op{Kind: Grayscale, Amount: 0.8}}
	case has(e, Contrast):
		return Directive{Op{Kind: Contrast, Amount: 1.2}}
	default:
		return None
	}
}

func has(e Effect, k OpKind) bool {
	_, ok := e.Find(k)
	return ok
}
