package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func owned(c ClassID, p PropID) Side { return OwnedSide(c, p) }
func anon(c ClassID) Side            { return AnonymousSide(c) }

func TestSideMatch(t *testing.T) {
	testCases := []struct {
		name string
		x, y Side
		want bool
	}{
		{"same class same prop", owned(1, 100), owned(1, 100), true},
		{"same class different prop", owned(1, 100), owned(1, 200), false},
		{"both anonymous", anon(1), anon(1), true},
		{"anonymous vs owned", anon(1), owned(1, 100), false},
		{"owned vs anonymous", owned(1, 100), anon(1), false},
		{"different class", owned(1, 100), owned(2, 100), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SideMatch(tc.x, tc.y))
		})
	}
}

func TestFullMatch(t *testing.T) {
	a := Sides{owned(1, 100), owned(2, 200)}

	assert.True(t, FullMatch(a, Sides{owned(1, 100), owned(2, 200)}), "same orientation")
	assert.True(t, FullMatch(a, Sides{owned(2, 200), owned(1, 100)}), "reversed orientation")
	assert.False(t, FullMatch(a, Sides{owned(1, 100), anon(2)}), "one side anonymous")
	assert.False(t, FullMatch(a, Sides{owned(1, 100), owned(2, 300)}), "different prop")
	assert.True(t, FullMatch(Sides{anon(1), anon(2)}, Sides{anon(2), anon(1)}), "anonymous both sides")
}

func TestPartialMatch(t *testing.T) {
	testCases := []struct {
		name string
		a, b Sides
		want bool
	}{
		{
			name: "same classes, one shared prop",
			a:    Sides{owned(1, 100), owned(2, 300)},
			b:    Sides{owned(1, 100), owned(2, 200)},
			want: true,
		},
		{
			name: "same classes, no shared props",
			a:    Sides{owned(1, 100), owned(2, 200)},
			b:    Sides{owned(1, 300), owned(2, 400)},
			want: false,
		},
		{
			name: "different classes",
			a:    Sides{owned(1, 100), owned(2, 200)},
			b:    Sides{owned(3, 100), owned(4, 200)},
			want: false,
		},
		{
			name: "self relation, shared prop",
			a:    Sides{owned(1, 100), owned(1, 300)},
			b:    Sides{owned(1, 100), owned(1, 200)},
			want: true,
		},
		{
			name: "self relation, no shared props",
			a:    Sides{owned(1, 100), owned(1, 200)},
			b:    Sides{owned(1, 300), owned(1, 400)},
			want: false,
		},
		{
			name: "reversed class order, shared prop",
			a:    Sides{owned(2, 200), owned(1, 300)},
			b:    Sides{owned(1, 100), owned(2, 200)},
			want: true,
		},
		{
			name: "anonymous sides never share a prop",
			a:    Sides{anon(1), owned(2, 200)},
			b:    Sides{owned(1, 100), anon(2)},
			want: false,
		},
		{
			name: "anonymous on same side, different props",
			a:    Sides{anon(1), owned(2, 200)},
			b:    Sides{anon(1), owned(2, 100)},
			want: false,
		},
		{
			name: "one-way against two-way on the owned prop",
			a:    Sides{owned(1, 100), anon(2)},
			b:    Sides{owned(1, 100), owned(2, 200)},
			want: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PartialMatch(tc.a, tc.b))
			assert.Equal(t, tc.want, PartialMatch(tc.b, tc.a), "partial match must be symmetric")
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, TwoWay, Classify(Sides{owned(1, 1), owned(2, 1)}))
	assert.Equal(t, OneWay, Classify(Sides{owned(1, 1), anon(2)}))
	assert.Equal(t, OneWay, Classify(Sides{anon(1), owned(2, 1)}))
	assert.Equal(t, Anonymous, Classify(Sides{anon(1), anon(2)}))

	assert.True(t, IsTwoWay(Sides{owned(1, 1), owned(1, 2)}))
	assert.False(t, IsTwoWay(Sides{owned(1, 1), anon(1)}))
}

func TestDegenerate(t *testing.T) {
	assert.True(t, Degenerate(Sides{owned(1, 1), owned(1, 1)}))
	assert.True(t, Degenerate(Sides{anon(1), anon(1)}))
	assert.False(t, Degenerate(Sides{owned(1, 1), owned(1, 2)}))
	assert.False(t, Degenerate(Sides{owned(1, 1), anon(1)}))
}

func TestJunctionOpposite(t *testing.T) {
	j := Junction{ID: 7, Sides: Sides{owned(1, 2), anon(3)}}

	opp, ok := j.Opposite(1, 2)
	assert.True(t, ok)
	assert.Equal(t, anon(3), opp)

	_, ok = j.Opposite(3, 2)
	assert.False(t, ok)

	assert.True(t, j.Touches(1, 2))
	assert.False(t, j.Touches(1, 3))
	assert.True(t, j.TouchesClass(3))
	assert.False(t, j.TouchesClass(4))
}
