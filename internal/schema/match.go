package schema

// Classification describes how many sides of a relation are owned.
type Classification string

const (
	TwoWay    Classification = "two-way"
	OneWay    Classification = "one-way"
	Anonymous Classification = "anonymous"
)

// Classify returns the classification of a pair of sides.
func Classify(sides Sides) Classification {
	switch {
	case sides[0].HasProp() && sides[1].HasProp():
		return TwoWay
	case sides[0].HasProp() || sides[1].HasProp():
		return OneWay
	}
	return Anonymous
}

// IsTwoWay reports whether both sides define a property id.
func IsTwoWay(sides Sides) bool {
	return Classify(sides) == TwoWay
}

// propsMatch is true when both properties are absent, or both are present
// and equal. Absent never matches present.
func propsMatch(x, y Side) bool {
	if x.PropID == nil || y.PropID == nil {
		return x.PropID == nil && y.PropID == nil
	}
	return *x.PropID == *y.PropID
}

// propsDefinedAndEqual is true only when both properties are present and equal.
func propsDefinedAndEqual(x, y Side) bool {
	return x.PropID != nil && y.PropID != nil && *x.PropID == *y.PropID
}

// SideMatch reports whether x and y name the same class and matching properties.
func SideMatch(x, y Side) bool {
	return x.ClassID == y.ClassID && propsMatch(x, y)
}

// FullMatch reports whether the sides of a and b match pairwise in either
// orientation.
func FullMatch(a, b Sides) bool {
	return (SideMatch(a[0], b[0]) && SideMatch(a[1], b[1])) ||
		(SideMatch(a[0], b[1]) && SideMatch(a[1], b[0]))
}

// PartialMatch reports whether a and b reference the same pair of classes and
// at least one corresponding side pair shares an equal, defined property id.
//
// Self-relations are handled by trying every orientation in which the
// classes line up.
func PartialMatch(a, b Sides) bool {
	for i := 0; i < 2; i++ {
		if b[0].ClassID != a[i].ClassID || b[1].ClassID != a[1-i].ClassID {
			continue
		}
		if propsDefinedAndEqual(b[0], a[i]) || propsDefinedAndEqual(b[1], a[1-i]) {
			return true
		}
	}
	return false
}

// Degenerate reports whether both sides of a relation are the same side. Such
// a relation has no distinguishable endpoints and cannot be stored.
func Degenerate(sides Sides) bool {
	return SideMatch(sides[0], sides[1])
}
