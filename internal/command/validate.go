package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/joeycumines/crew-scheduler/internal/sim"
)

// ValidateCommand checks scenario files without running them.
type ValidateCommand struct {
	*BaseCommand
}

// NewValidateCommand creates a new validate command.
func NewValidateCommand() *ValidateCommand {
	return &ValidateCommand{
		BaseCommand: NewBaseCommand(
			"validate",
			"Check scenario files for errors",
			"validate <scenario.yaml>...",
		),
	}
}

// Execute validates every file, reporting each problem.
func (c *ValidateCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintf(stderr, "Usage: %s\n", c.Usage())
		return fmt.Errorf("no scenario files given")
	}
	var failed []string
	for _, path := range args {
		err := validateScenario(path)
		if err == nil {
			_, _ = fmt.Fprintf(stdout, "%s: ok\n", path)
			continue
		}
		failed = append(failed, path)
		_, _ = fmt.Fprintf(stdout, "%s:\n", path)
		for _, issue := range unjoin(err) {
			_, _ = fmt.Fprintf(stdout, "  - %v\n", issue)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d scenario(s) invalid", len(failed), len(args))
	}
	return nil
}

func validateScenario(path string) error {
	sc, err := sim.LoadScenario(path)
	if err != nil {
		return err
	}
	return sc.Validate()
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
