package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll([]ConfigOption{
		{Key: "level", Type: TypeString, Default: "info", Description: "Level", EnvVar: "TEST_CREWSIM_LEVEL"},
		{Key: "count", Type: TypeInt, Default: "3", Description: "Count"},
		{Key: "rate", Section: "alpha", Type: TypeFloat, Default: "0.5", Description: "Rate"},
		{Key: "wait", Section: "beta", Type: TypeDuration, Description: "Wait"},
	})
	return s
}

func TestSchemaLookupAndIsKnown(t *testing.T) {
	t.Parallel()
	s := testSchema()

	require.NotNil(t, s.Lookup("", "level"))
	assert.Nil(t, s.Lookup("", "rate"))
	require.NotNil(t, s.Lookup("alpha", "rate"))
	assert.Nil(t, s.Lookup("beta", "rate"))
	assert.Nil(t, s.Lookup("gamma", "rate"))

	assert.True(t, s.IsKnown("", "count"))
	assert.False(t, s.IsKnown("", "rate"))
	assert.True(t, s.IsKnown("alpha", "rate"))
	assert.True(t, s.IsKnown("alpha", "count"), "globals are known in sections")
	assert.False(t, s.IsKnown("beta", "rate"))

	assert.Equal(t, []string{"alpha", "beta"}, s.Sections())
	assert.Len(t, s.GlobalOptions(), 2)
	assert.Len(t, s.SectionOptions("beta"), 1)
}

func TestSchemaSplitKey(t *testing.T) {
	t.Parallel()
	s := testSchema()
	for _, tc := range []struct{ name, section, key string }{
		{"alpha.rate", "alpha", "rate"},
		{"level", "", "level"},
		{"beta.rate", "", "beta.rate"},
		{"gamma.rate", "", "gamma.rate"},
		{"alpha.", "", "alpha."},
	} {
		section, key := s.SplitKey(tc.name)
		assert.Equal(t, tc.section, section, tc.name)
		assert.Equal(t, tc.key, key, tc.name)
	}

	section, key := DefaultSchema().SplitKey("log.level")
	assert.Empty(t, section)
	assert.Equal(t, "log.level", key)
}

func TestSchemaDuplicateOverwrites(t *testing.T) {
	t.Parallel()
	s := NewSchema()
	s.Register(ConfigOption{Key: "k", Default: "a"})
	s.Register(ConfigOption{Key: "k", Default: "b"})
	assert.Equal(t, "b", s.Lookup("", "k").Default)
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name   string
		input  string
		issues []string
	}{
		{name: "empty"},
		{name: "valid", input: "level debug\ncount 4\n[alpha]\nrate 1.5\n[beta]\nwait 2s\n"},
		{name: "unknown global", input: "nope 1\n", issues: []string{`unknown global option: "nope" (value: "1")`}},
		{name: "unknown in section", input: "[beta]\nrate 1\n", issues: []string{`unknown option in [beta]: "rate" (value: "1")`}},
		{name: "global in section", input: "[alpha]\ncount 9\n"},
		{name: "global in section mistyped", input: "[alpha]\ncount x\n", issues: []string{`option "count" in [alpha]: expected int, got "x"`}},
		{name: "float", input: "[alpha]\nrate fast\n", issues: []string{`option "rate" in [alpha]: expected float, got "fast"`}},
		{name: "duration", input: "[beta]\nwait 5\n", issues: []string{`option "wait" in [beta]: expected duration, got "5"`}},
		{
			name:  "sorted",
			input: "zz 1\naa 1\n",
			issues: []string{
				`unknown global option: "aa" (value: "1")`,
				`unknown global option: "zz" (value: "1")`,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := NewConfig()
			section := ""
			for _, line := range strings.Split(tc.input, "\n") {
				switch {
				case line == "":
				case strings.HasPrefix(line, "["):
					section = strings.Trim(line, "[]")
				default:
					k, v, _ := strings.Cut(line, " ")
					if section == "" {
						c.SetGlobalOption(k, v)
					} else {
						c.SetSectionOption(section, k, v)
					}
				}
			}
			assert.Equal(t, tc.issues, ValidateConfig(c, testSchema()))
		})
	}
}

func TestValidateType(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		typ   OptionType
		value string
		ok    bool
	}{
		{TypeString, "anything", true},
		{"", "", true},
		{TypeBool, "yes", true},
		{TypeBool, "y", false},
		{TypeInt, "-3", true},
		{TypeInt, "3.5", false},
		{TypeFloat, "3.5", true},
		{TypeFloat, "1e2", true},
		{TypeFloat, "NaNx", false},
		{TypeDuration, "250ms", true},
		{TypeDuration, "250", false},
		{"matrix", "x", false},
	} {
		err := validateType(tc.typ, tc.value)
		assert.Equal(t, tc.ok, err == nil, "%s %q: %v", tc.typ, tc.value, err)
	}
}

func TestTypedGetters(t *testing.T) {
	t.Parallel()
	c := NewConfig()
	c.SetGlobalOption("b", "on")
	c.SetGlobalOption("i", "42")
	c.SetGlobalOption("f", "0.75")
	c.SetGlobalOption("d", "1m")
	c.SetGlobalOption("bad", "x")

	assert.True(t, c.GetBool("b"))
	assert.False(t, c.GetBool("bad"))
	assert.False(t, c.GetBool("missing"))
	assert.Equal(t, 42, c.GetInt("i"))
	assert.Equal(t, 0, c.GetInt("bad"))
	assert.InDelta(t, 0.75, c.GetFloat("f"), 1e-12)
	assert.Zero(t, c.GetFloat("bad"))
	assert.Equal(t, "1m0s", c.GetDuration("d").String())
	assert.Zero(t, c.GetDuration("bad"))
	assert.Equal(t, "fallback", c.GetStringDefault("missing", "fallback"))
	assert.Equal(t, "x", c.GetStringDefault("bad", "fallback"))
}

func TestSchemaResolve(t *testing.T) {
	s := testSchema()
	c := NewConfig()

	assert.Equal(t, "info", s.Resolve(c, "level"), "default")
	c.SetGlobalOption("level", "warn")
	assert.Equal(t, "warn", s.Resolve(c, "level"), "config")
	t.Setenv("TEST_CREWSIM_LEVEL", "debug")
	assert.Equal(t, "debug", s.Resolve(c, "level"), "env")
	assert.Equal(t, "", s.Resolve(c, "unregistered"))

	assert.Equal(t, "0.5", s.ResolveIn(c, "alpha", "rate"))
	c.SetSectionOption("alpha", "rate", "2")
	assert.Equal(t, "2", s.ResolveIn(c, "alpha", "rate"))
	c.SetGlobalOption("count", "7")
	assert.Equal(t, "7", s.ResolveIn(c, "alpha", "count"), "section falls back to global")
}

func TestFormatHelp(t *testing.T) {
	t.Parallel()
	help := testSchema().FormatHelp()

	assert.True(t, strings.HasPrefix(help, "Global Options:\n"))
	assert.Contains(t, help, "(default: info, env: TEST_CREWSIM_LEVEL)")
	assert.Contains(t, help, "(type: int, default: 3)")
	assert.Less(t, strings.Index(help, "[alpha] Options:"), strings.Index(help, "[beta] Options:"))
	assert.Contains(t, help, "(type: duration)")
	assert.Empty(t, NewSchema().FormatHelp())
}

func TestDefaultSchema(t *testing.T) {
	t.Parallel()
	s := DefaultSchema()

	for _, key := range []string{"log.level", "log.file", "telemetry.endpoint", "telemetry.insecure", "sim.tick", "sim.ticks", "sim.switch-margin"} {
		assert.NotNil(t, s.Lookup("", key), key)
	}
	assert.Equal(t, []string{SectionCrew, SectionEffects, SectionRescue, "run", "watch"}, s.Sections())
	for _, key := range []string{"vitality-threshold", "order-threshold", "enough-rescuers", "non-medic-multiplier", "medical-skill", "medic-job", "treat-rate", "vitality-expr"} {
		assert.NotNil(t, s.Lookup(SectionRescue, key), key)
	}
	assert.Equal(t, TypeFloat, s.Lookup(SectionCrew, "combat-priority").Type)
	assert.Equal(t, "CREWSIM_LOG_LEVEL", s.Lookup("", "log.level").EnvVar)

	// every default must satisfy its own type
	for _, sec := range append([]string{""}, s.Sections()...) {
		for _, o := range s.SectionOptions(sec) {
			if o.Default != "" {
				assert.NoError(t, validateType(o.Type, o.Default), "%s/%s", sec, o.Key)
			}
		}
	}
}
