package types

// Predicate is a comparison operator applied as "field op operand".
type Predicate int

const (
	Equals Predicate = iota
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	NotEqual
)

var predicateOps = [...]struct {
	symbol string
	holds  func(cmp int) bool
}{
	Equals:             {"=", func(c int) bool { return c == 0 }},
	LessThan:           {"<", func(c int) bool { return c < 0 }},
	GreaterThan:        {">", func(c int) bool { return c > 0 }},
	LessThanOrEqual:    {"<=", func(c int) bool { return c <= 0 }},
	GreaterThanOrEqual: {">=", func(c int) bool { return c >= 0 }},
	NotEqual:           {"!=", func(c int) bool { return c != 0 }},
}

func (p Predicate) valid() bool {
	return p >= 0 && int(p) < len(predicateOps)
}

func (p Predicate) String() string {
	if !p.valid() {
		return "UNKNOWN"
	}
	return predicateOps[p].symbol
}

// evaluate applies p to the sign of a three-way comparison. Unknown
// operators never hold.
func evaluate(cmp int, p Predicate) bool {
	return p.valid() && predicateOps[p].holds(cmp)
}
