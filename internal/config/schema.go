package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// OptionType is the expected type of a configuration option value.
type OptionType string

const (
	// TypeString is a plain string value (the default for all config values).
	TypeString OptionType = "string"
	// TypeBool is a boolean value (true/false/yes/no/1/0/on/off).
	TypeBool OptionType = "bool"
	// TypeInt is an integer value.
	TypeInt OptionType = "int"
	// TypeFloat is a decimal value.
	TypeFloat OptionType = "float"
	// TypeDuration is a Go time.Duration value (e.g. "30s", "5m", "1h").
	TypeDuration OptionType = "duration"
)

// ConfigOption declares a single configuration option with its type, default,
// documentation, and environment variable override.
type ConfigOption struct {
	// Key is the option name as it appears in the config file (kebab-case).
	Key string
	// Type is the expected value type for validation.
	Type OptionType
	// Default is the default value as a string, or "" for no default.
	Default string
	// Description is a human-readable description of the option.
	Description string
	// Section is "" for global options, or a section name.
	Section string
	// EnvVar is the environment variable that overrides this option, or "".
	EnvVar string
}

// ConfigSchema declares the expected configuration options. It drives
// validation, help output, and env var overrides.
type ConfigSchema struct {
	options   []*ConfigOption
	byKey     map[string]*ConfigOption
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds a ConfigOption to the schema. The last registration of a key
// within a section wins.
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := new(ConfigOption)
	*ref = opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
		return
	}
	if s.bySection[opt.Section] == nil {
		s.bySection[opt.Section] = make(map[string]*ConfigOption)
	}
	s.bySection[opt.Section][opt.Key] = ref
}

// RegisterAll adds multiple ConfigOptions to the schema.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the ConfigOption for a key in a given section ("" for
// global), or nil.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	return s.bySection[section][key]
}

// IsKnown reports whether key is registered in section. Global keys are
// known in every section, since sections fall back to them.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	if section != "" && s.bySection[section][key] != nil {
		return true
	}
	return s.byKey[key] != nil
}

// GlobalOptions returns all registered global options.
func (s *ConfigSchema) GlobalOptions() []ConfigOption {
	return s.SectionOptions("")
}

// SectionOptions returns all registered options for a specific section, in
// registration order.
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns the sorted names of all non-global sections.
func (s *ConfigSchema) Sections() []string {
	out := make([]string, 0, len(s.bySection))
	for sec := range s.bySection {
		out = append(out, sec)
	}
	slices.Sort(out)
	return out
}

// SplitKey splits a dotted name such as "rescue.vitality-threshold" into the
// section and key it addresses. Names that do not start with a known section
// followed by one of its options are global keys.
func (s *ConfigSchema) SplitKey(name string) (section, key string) {
	if sec, k, ok := strings.Cut(name, "."); ok && s.bySection[sec][k] != nil {
		return sec, k
	}
	return "", name
}

// Resolve returns the effective value for a global config key by checking,
// in order: (1) the environment variable declared in the schema for this key,
// (2) the config value, (3) the schema default. Returns "" if the key is not
// found anywhere.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	return s.ResolveIn(c, "", key)
}

// ResolveIn is Resolve for an option of section. A section option not set in
// its section falls back to the global value, then the default.
func (s *ConfigSchema) ResolveIn(c *Config, section, key string) string {
	opt := s.Lookup(section, key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	var (
		v  string
		ok bool
	)
	if section == "" {
		v, ok = c.GetGlobalOption(key)
	} else {
		v, ok = c.GetSectionOption(section, key)
	}
	if ok {
		return v
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ValidateConfig checks a loaded Config against the schema and returns a
// sorted list of human-readable issues: unknown options and type mismatches.
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateType(opt.Type, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Sections {
		for key, value := range opts {
			if !s.IsKnown(section, key) {
				issues = append(issues, fmt.Sprintf("unknown option in [%s]: %q (value: %q)", section, key, value))
				continue
			}
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if err := validateType(opt.Type, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	slices.Sort(issues)
	return issues
}

// Check reports whether value is acceptable for the option's type.
func (o ConfigOption) Check(value string) error {
	return validateType(o.Type, value)
}

// validateType checks that a string value matches the expected OptionType.
func validateType(t OptionType, value string) error {
	switch t {
	case TypeString, "":
		return nil
	case TypeBool:
		if _, err := parseBool(value); err != nil {
			return fmt.Errorf("expected bool, got %q", value)
		}
	case TypeInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("expected int, got %q", value)
		}
	case TypeFloat:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("expected float, got %q", value)
		}
	case TypeDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("expected duration, got %q", value)
		}
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	return nil
}

// --- Typed getter methods on Config ---

// GetString returns the global option value for key, or "" if not set.
func (c *Config) GetString(key string) string {
	v, _ := c.GetGlobalOption(key)
	return v
}

// GetStringDefault returns the global option value for key, or defaultValue if
// not set.
func (c *Config) GetStringDefault(key, defaultValue string) string {
	v, ok := c.GetGlobalOption(key)
	if !ok {
		return defaultValue
	}
	return v
}

// GetBool returns the global option value for key parsed as a boolean. Returns
// false if the key is not set or the value cannot be parsed.
func (c *Config) GetBool(key string) bool {
	b, err := parseBool(c.GetString(key))
	return err == nil && b
}

// GetInt returns the global option value for key parsed as an integer. Returns
// 0 if the key is not set or the value cannot be parsed.
func (c *Config) GetInt(key string) int {
	i, err := strconv.Atoi(c.GetString(key))
	if err != nil {
		return 0
	}
	return i
}

// GetFloat returns the global option value for key parsed as a float. Returns
// 0 if the key is not set or the value cannot be parsed.
func (c *Config) GetFloat(key string) float64 {
	f, err := strconv.ParseFloat(c.GetString(key), 64)
	if err != nil {
		return 0
	}
	return f
}

// GetDuration returns the global option value for key parsed as a
// time.Duration. Returns 0 if the key is not set or the value cannot be parsed.
func (c *Config) GetDuration(key string) time.Duration {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0
	}
	return d
}

// --- Help text generation ---

// FormatHelp returns a human-readable reference of all registered options,
// grouped by section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder

	if globals := s.GlobalOptions(); len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}

	for _, sec := range s.Sections() {
		opts := s.SectionOptions(sec)
		if len(opts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range opts {
			writeOptionHelp(&b, o)
		}
	}

	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-28s %s", o.Key, o.Description)
	parts := make([]string, 0, 3)
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, fmt.Sprintf("type: %s", o.Type))
	}
	if o.Default != "" {
		parts = append(parts, fmt.Sprintf("default: %s", o.Default))
	}
	if o.EnvVar != "" {
		parts = append(parts, fmt.Sprintf("env: %s", o.EnvVar))
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// --- Default schema ---

// Section names.
const (
	SectionRescue  = "rescue"
	SectionCrew    = "crew"
	SectionEffects = "effects"
)

// DefaultSchema returns the schema of every known crewsim option.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll(defaultGlobalOptions())
	s.RegisterAll(defaultSchedulerOptions())
	s.RegisterAll(defaultCommandOptions())
	return s
}

func defaultGlobalOptions() []ConfigOption {
	return []ConfigOption{
		// Logging
		{Key: "log.file", Type: TypeString, Default: "", Description: "Log file path (JSON output)", EnvVar: "CREWSIM_LOG_FILE"},
		{Key: "log.level", Type: TypeString, Default: "info", Description: "Log level: debug, info, warn, error", EnvVar: "CREWSIM_LOG_LEVEL"},

		// Telemetry
		{Key: "telemetry.endpoint", Type: TypeString, Default: "", Description: "OTLP/HTTP endpoint; empty disables export", EnvVar: "CREWSIM_OTLP_ENDPOINT"},
		{Key: "telemetry.insecure", Type: TypeBool, Default: "false", Description: "Export over plain HTTP"},

		// Simulation
		{Key: "sim.tick", Type: TypeFloat, Default: "1", Description: "Simulated seconds per tick"},
		{Key: "sim.ticks", Type: TypeInt, Default: "60", Description: "Ticks per run"},
		{Key: "sim.switch-margin", Type: TypeFloat, Default: "0", Description: "Priority lead a challenger needs to replace the current objective"},
	}
}

func defaultSchedulerOptions() []ConfigOption {
	return []ConfigOption{
		// [rescue]
		{Key: "vitality-threshold", Section: SectionRescue, Type: TypeFloat, Default: "80", Description: "Targets at or above this vitality need no rescue"},
		{Key: "order-threshold", Section: SectionRescue, Type: TypeFloat, Default: "100", Description: "Vitality threshold when ordered, or when the target is self"},
		{Key: "enough-rescuers", Section: SectionRescue, Type: TypeFloat, Default: "100", Description: "Evaluation when engaged peers cover every target"},
		{Key: "non-medic-multiplier", Section: SectionRescue, Type: TypeFloat, Default: "2", Description: "Evaluation scale for non-medics when a medic is around"},
		{Key: "medical-skill", Section: SectionRescue, Type: TypeString, Default: "medical", Description: "Skill compared between rescuers"},
		{Key: "medic-job", Section: SectionRescue, Type: TypeString, Default: "medicaldoctor", Description: "Job identifying medics"},
		{Key: "treat-rate", Section: SectionRescue, Type: TypeFloat, Default: "10", Description: "Health restored per second of treatment at skill 0"},
		{Key: "vitality-expr", Section: SectionRescue, Type: TypeString, Default: "", Description: "Vitality formula over Health, Bleeding, Bloodloss, Oxygen"},

		// [crew]
		{Key: "idle-priority", Section: SectionCrew, Type: TypeFloat, Default: "5", Description: "Priority of idling"},
		{Key: "find-safety-priority", Section: SectionCrew, Type: TypeFloat, Default: "90", Description: "Priority of leaving an unsafe hull"},
		{Key: "combat-priority", Section: SectionCrew, Type: TypeFloat, Default: "95", Description: "Priority of fighting a hostile in the same hull"},
		{Key: "combat-damage", Section: SectionCrew, Type: TypeFloat, Default: "25", Description: "Health removed from a hostile per second"},
		{Key: "weapons-skill", Section: SectionCrew, Type: TypeString, Default: "weapons", Description: "Skill scaling combat damage"},

		// [effects]
		{Key: "bloodloss-rate", Section: SectionEffects, Type: TypeFloat, Default: "0.5", Description: "Bloodloss gained per bleeding point per second"},
		{Key: "oxygen-drain", Section: SectionEffects, Type: TypeFloat, Default: "20", Description: "Oxygen lost per second in a flooded hull"},
		{Key: "oxygen-recovery", Section: SectionEffects, Type: TypeFloat, Default: "10", Description: "Oxygen regained per second elsewhere"},
	}
}

func defaultCommandOptions() []ConfigOption {
	return []ConfigOption{
		// [run]
		{Key: "format", Section: "run", Type: TypeString, Default: "text", Description: "Report format: text, json"},
		{Key: "parallel", Section: "run", Type: TypeInt, Default: "4", Description: "Scenarios run concurrently"},

		// [watch]
		{Key: "interval", Section: "watch", Type: TypeDuration, Default: "500ms", Description: "Wall-clock time between ticks"},
	}
}
