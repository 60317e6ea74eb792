// Package loxtest runs lox programs in isolated sessions for tests and
// loads golden cases from YAML files.
package loxtest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/podhmo/lox"
	"gopkg.in/yaml.v3"
)

// Result holds everything a run made observable.
type Result struct {
	Stdout string
	Stderr string
	Status lox.Status
}

// Run executes src in a fresh interpreter and captures its output streams.
func Run(ctx context.Context, src string, options ...lox.Option) *Result {
	var stdout, stderr bytes.Buffer
	options = append([]lox.Option{lox.WithStdout(&stdout), lox.WithStderr(&stderr)}, options...)
	interp := lox.New(options...)
	status, _ := interp.Run(ctx, src)
	return &Result{Stdout: stdout.String(), Stderr: stderr.String(), Status: status}
}

// Case is one golden program.
type Case struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Stdout string `yaml:"stdout"`
	Stderr string `yaml:"stderr"`
	Status string `yaml:"status"` // "ok" (the default), "static-error" or "runtime-error"
}

// File is the top-level shape of a golden YAML file.
type File struct {
	Cases []Case `yaml:"cases"`
}

// LoadCases reads the golden cases from a YAML file.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	for i := range f.Cases {
		if f.Cases[i].Name == "" {
			return nil, fmt.Errorf("%s: case #%d has no name", path, i)
		}
		if f.Cases[i].Status == "" {
			f.Cases[i].Status = lox.StatusOK.String()
		}
	}
	return f.Cases, nil
}

// Check runs the case and reports every mismatch against t.
func (c Case) Check(t testing.TB) {
	t.Helper()
	got := Run(context.Background(), c.Source)
	if diff := cmp.Diff(c.Stdout, got.Stdout); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(c.Stderr, got.Stderr); diff != "" {
		t.Errorf("stderr mismatch (-want +got):\n%s", diff)
	}
	if c.Status != got.Status.String() {
		t.Errorf("status mismatch: want %s, got %s", c.Status, got.Status)
	}
}
