package behavior

import (
	"fmt"
	"slices"
	"strings"
)

// Fact names one entry of an objective's world model.
type Fact string

// Facts is what an objective last observed about the world. The zero value is
// ready to use. Values must be comparable. Facts are owned by one objective
// and are not safe for concurrent use.
type Facts struct {
	m map[Fact]any
}

// Set records v for f and reports whether the recorded value changed.
func (x *Facts) Set(f Fact, v any) bool {
	if x.m == nil {
		x.m = make(map[Fact]any)
	}
	old, ok := x.m[f]
	x.m[f] = v
	return !ok || old != v
}

// Get returns the value recorded for f.
func (x *Facts) Get(f Fact) (any, bool) {
	v, ok := x.m[f]
	return v, ok
}

// Bool reports whether f is recorded as true.
func (x *Facts) Bool(f Fact) bool {
	v, _ := x.m[f].(bool)
	return v
}

// Forget drops f.
func (x *Facts) Forget(f Fact) {
	delete(x.m, f)
}

// Len returns the number of recorded facts.
func (x *Facts) Len() int { return len(x.m) }

// Names returns the recorded facts in name order.
func (x *Facts) Names() []Fact {
	names := make([]Fact, 0, len(x.m))
	for f := range x.m {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// String formats the facts as space separated name=value pairs, in name
// order.
func (x *Facts) String() string {
	var sb strings.Builder
	for i, f := range x.Names() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%v", f, x.m[f])
	}
	return sb.String()
}
