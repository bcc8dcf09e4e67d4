package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "note.md", "Hello {{name}}!\n<!-- name: who to greet -->\n")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"render", path, "--var", "name=Ada"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Hello Ada!") {
		t.Errorf("output = %q, want substituted greeting", out)
	}
	if strings.Contains(out, "<!--") {
		t.Errorf("output = %q, comments should be stripped by default", out)
	}
}

func TestRenderCommand_KeepComments(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "note.md", "{{body}}\n<!-- body: the text -->\n")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"render", path, "--var", "body=x", "--keep-comments"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "<!--") {
		t.Errorf("output = %q, want comments kept", buf.String())
	}
}

func TestRenderCommand_UnresolvedWarning(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "note.md", "{{supplied}} {{forgotten}}\n")

	cmd := newRootCmd()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"render", path, "--var", "supplied=yes"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unresolved placeholders must not fail the render: %v", err)
	}
	if !strings.Contains(out.String(), "{{forgotten}}") {
		t.Errorf("output = %q, want unresolved placeholder preserved", out.String())
	}
	if !strings.Contains(errOut.String(), "forgotten") {
		t.Errorf("stderr = %q, want unresolved warning", errOut.String())
	}
}

func TestRenderCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "note.md", "Hi {{name}}\n")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"render", path, "--var", "name=Bo", "--json"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v\noutput: %s", err, buf.String())
	}
	if rendered, _ := result["rendered"].(string); !strings.Contains(rendered, "Hi Bo") {
		t.Errorf("rendered = %v, want substituted text", result["rendered"])
	}
}

func TestRenderCommand_BadVar(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "note.md", "{{x}}\n")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"render", path, "--var", "novalue"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for malformed --var")
	}
}

func TestParseVars(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "simple pairs",
			pairs: []string{"a=1", "b=two words"},
			want:  map[string]string{"a": "1", "b": "two words"},
		},
		{
			name:  "value containing equals",
			pairs: []string{"query=x=y"},
			want:  map[string]string{"query": "x=y"},
		},
		{
			name:    "missing equals",
			pairs:   []string{"nope"},
			wantErr: true,
		},
		{
			name:    "empty name",
			pairs:   []string{"=value"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVars(tt.pairs)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for key, want := range tt.want {
				if got[key] != want {
					t.Errorf("vars[%q] = %q, want %q", key, got[key], want)
				}
			}
		})
	}
}
