package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	t.Setenv("CREWSIM_CONFIG", filepath.Join(t.TempDir(), "config"))

	for _, tc := range []struct {
		name    string
		args    []string
		wantErr bool
		stdout  string
		stderr  string
	}{
		{name: "no command shows help", stdout: "Available commands:"},
		{name: "help flag", args: []string{"--help"}, stdout: "Usage: crewsim <command>"},
		{name: "short help flag", args: []string{"-h"}, stdout: "Usage: crewsim <command>"},
		{name: "help command", args: []string{"help", "watch"}, stdout: "Command: watch"},
		{name: "version", args: []string{"version"}, stdout: "crewsim version " + version},
		{name: "unknown command", args: []string{"nonexistent"}, wantErr: true, stderr: "Unknown command: nonexistent"},
		{name: "command flag help", args: []string{"run", "-h"}, stderr: "Usage: run [options]"},
		{name: "bad flag", args: []string{"run", "-nope"}, wantErr: true},
		{
			name:   "validate",
			args:   []string{"validate", "../../internal/sim/testdata/outbreak.yaml"},
			stdout: "outbreak.yaml: ok",
		},
		{
			name:   "run",
			args:   []string{"run", "-ticks", "12", "-log-level", "error", "../../internal/sim/testdata/outbreak.yaml"},
			stdout: `event 10:order agent=mechanic order="rescue all"`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(tc.args, &stdout, &stderr)
			if (err != nil) != tc.wantErr {
				t.Fatalf("run(%q) error = %v, stderr:\n%s", tc.args, err, stderr.String())
			}
			if !strings.Contains(stdout.String(), tc.stdout) {
				t.Errorf("stdout missing %q:\n%s", tc.stdout, stdout.String())
			}
			if !strings.Contains(stderr.String(), tc.stderr) {
				t.Errorf("stderr missing %q:\n%s", tc.stderr, stderr.String())
			}
		})
	}
}

func TestRunRegistersAllCommands(t *testing.T) {
	t.Setenv("CREWSIM_CONFIG", filepath.Join(t.TempDir(), "config"))

	var stdout bytes.Buffer
	if err := run([]string{"help"}, &stdout, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"config", "help", "init", "run", "validate", "version", "watch"} {
		if !strings.Contains(stdout.String(), "  "+name+" ") {
			t.Errorf("command %s not listed:\n%s", name, stdout.String())
		}
	}
}
