package behavior

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Formula is a compiled numeric expr-lang expression over a typed
// environment, e.g. `Health - Bleeding * 2`.
type Formula struct {
	source  string
	program *vm.Program
}

// CompileFormula compiles source against env, a zero value of the
// environment type later passed to Eval. Unknown identifiers are compile
// errors.
func CompileFormula(source string, env any) (*Formula, error) {
	if source == "" {
		return nil, fmt.Errorf("formula cannot be empty")
	}
	program, err := expr.Compile(source, expr.Env(env), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("compile formula %q: %w", source, err)
	}
	return &Formula{source: source, program: program}, nil
}

// String returns the formula source.
func (f *Formula) String() string { return f.source }

// Eval runs the formula against env.
func (f *Formula) Eval(env any) (float64, error) {
	out, err := expr.Run(f.program, env)
	if err != nil {
		return 0, fmt.Errorf("eval formula %q: %w", f.source, err)
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("eval formula %q: non-numeric result %T", f.source, out)
	}
	return v, nil
}
