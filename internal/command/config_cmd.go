package command

import (
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/joeycumines/crew-scheduler/internal/config"
)

// ConfigCommand shows and edits configuration. Section options are addressed
// as section.key, e.g. rescue.vitality-threshold.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	configPath string
	showGlobal bool
	showAll    bool
}

// NewConfigCommand creates a new config command. An empty configPath
// resolves the default location when a value is set.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Manage configuration settings",
			"config [options] [key] [value]",
		),
		config:     cfg,
		configPath: configPath,
	}
}

// SetupFlags configures the flags for the config command.
func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.showGlobal, "global", false, "Show only global configuration")
	fs.BoolVar(&c.showAll, "all", false, "Show all configuration (global and sections)")
}

// Execute manages configuration.
func (c *ConfigCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		switch {
		case c.showAll:
			c.printGlobal(stdout)
			_, _ = fmt.Fprintln(stdout, "\nSections:")
			for _, section := range slices.Sorted(maps.Keys(c.config.Sections)) {
				_, _ = fmt.Fprintf(stdout, "  [%s]\n", section)
				options := c.config.Sections[section]
				for _, key := range slices.Sorted(maps.Keys(options)) {
					_, _ = fmt.Fprintf(stdout, "    %s: %s\n", key, options[key])
				}
			}
		case c.showGlobal:
			c.printGlobal(stdout)
		default:
			_, _ = fmt.Fprint(stdout, configUsage)
		}
		return nil
	}

	switch args[0] {
	case "validate":
		return c.executeValidate(stdout)
	case "schema":
		_, _ = fmt.Fprint(stdout, config.DefaultSchema().FormatHelp())
		return nil
	}

	schema := config.DefaultSchema()
	section, key := schema.SplitKey(args[0])

	switch len(args) {
	case 1:
		// env, then config, then default
		if value := schema.ResolveIn(c.config, section, key); value != "" {
			_, _ = fmt.Fprintf(stdout, "%s: %s\n", args[0], value)
		} else if schema.IsKnown(section, key) {
			_, _ = fmt.Fprintf(stdout, "%s: \n", args[0])
		} else {
			_, _ = fmt.Fprintf(stdout, "Configuration key '%s' not found\n", args[0])
		}
		return nil

	case 2:
		value := args[1]
		if opt := schema.Lookup(section, key); opt == nil {
			_, _ = fmt.Fprintf(stderr, "Warning: %q is not a known option\n", args[0])
		} else if err := opt.Check(value); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		if section == "" {
			c.config.SetGlobalOption(key, value)
		} else {
			c.config.SetSectionOption(section, key, value)
		}

		configPath := c.configPath
		if configPath == "" {
			configPath, _ = config.GetConfigPath()
		}
		if configPath != "" {
			if err := config.SetKeyInFile(configPath, section, key, value); err != nil {
				_, _ = fmt.Fprintf(stderr, "Warning: failed to persist config to disk: %v\n", err)
			}
		}

		_, _ = fmt.Fprintf(stdout, "Set configuration: %s = %s\n", args[0], value)
		return nil
	}

	_, _ = fmt.Fprintln(stderr, "Invalid number of arguments")
	return fmt.Errorf("invalid arguments")
}

const configUsage = `Configuration management:
  config <key>          - Get configuration value
  config <key> <value>  - Set configuration value
  config --global       - Show global configuration
  config --all          - Show all configuration
  config validate       - Validate configuration
  config schema         - Show configuration schema

Section options are addressed as <section>.<key>, e.g. rescue.vitality-threshold.
`

func (c *ConfigCommand) printGlobal(stdout io.Writer) {
	_, _ = fmt.Fprintln(stdout, "Global configuration:")
	for _, key := range slices.Sorted(maps.Keys(c.config.Global)) {
		_, _ = fmt.Fprintf(stdout, "  %s: %s\n", key, c.config.Global[key])
	}
}

// executeValidate checks the config against the schema, then checks that the
// scheduler tuning materialises.
func (c *ConfigCommand) executeValidate(stdout io.Writer) error {
	issues := config.ValidateConfig(c.config, config.DefaultSchema())
	if _, err := c.config.Scheduler(nil); err != nil {
		for _, e := range unjoin(err) {
			issues = append(issues, e.Error())
		}
	}
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return nil
}

// InitCommand writes a starter configuration file.
type InitCommand struct {
	*BaseCommand
	force bool
}

// NewInitCommand creates a new init command.
func NewInitCommand() *InitCommand {
	return &InitCommand{
		BaseCommand: NewBaseCommand(
			"init",
			"Write a starter configuration file",
			"init [options]",
		),
	}
}

// SetupFlags configures the flags for the init command.
func (c *InitCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "Overwrite an existing configuration")
}

const defaultConfig = `# crewsim configuration file
# Format: optionName remainingLineIsTheValue
# Run 'crewsim config schema' for every option.

log.level info
sim.tick 1
sim.ticks 60

# OTLP/HTTP collector, e.g. localhost:4318
# telemetry.endpoint localhost:4318
# telemetry.insecure true

[rescue]
vitality-threshold 80
order-threshold 100
# vitality-expr Health - Bleeding * 2

[crew]
idle-priority 5
find-safety-priority 90
combat-priority 95

[effects]
bloodloss-rate 0.5

[run]
format text
parallel 4

[watch]
interval 500ms
`

// Execute writes the configuration.
func (c *InitCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil && !c.force {
		_, _ = fmt.Fprintf(stdout, "Configuration already exists at: %s\n", configPath)
		_, _ = fmt.Fprintln(stdout, "Use --force to overwrite existing configuration")
		return nil
	}

	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if cfg, err := config.LoadFromPath(configPath); err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: Failed to load created config: %v\n", err)
	} else if cfg.HasWarnings() {
		_, _ = fmt.Fprintf(stderr, "Warning: created config has %d issue(s)\n", len(cfg.GetWarnings()))
	}

	_, _ = fmt.Fprintf(stdout, "Initialized crewsim configuration at: %s\n", configPath)
	return nil
}
