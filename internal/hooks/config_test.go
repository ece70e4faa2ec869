package hooks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	hooks, err := Parse([]byte(`
hooks:
  - name: notify
    topic: forms.record.submitted
    command: ./notify.sh
    timeout: 10
  - topic: forms.>
    command: logger form event
    on_failure: ignore
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []Hook{
		{Name: "notify", Topic: "forms.record.submitted", Command: "./notify.sh", Timeout: 10, OnFailure: OnFailureWarn},
		{Name: "hook-2", Topic: "forms.>", Command: "logger form event", OnFailure: OnFailureIgnore},
	}
	if diff := cmp.Diff(want, hooks); diff != "" {
		t.Errorf("hooks (-want +got):\n%s", diff)
	}
}

func TestParse_Empty(t *testing.T) {
	hooks, err := Parse(nil)
	if err != nil || len(hooks) != 0 {
		t.Errorf("Parse(nil) = %v, %v", hooks, err)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name, yaml, want string
	}{
		{"MissingTopic", "hooks:\n  - name: a\n    command: x\n", "topic is required"},
		{"MissingCommand", "hooks:\n  - name: a\n    topic: forms.>\n", "command is required"},
		{"BadOnFailure", "hooks:\n  - {name: a, topic: t, command: c, on_failure: block}\n", "on_failure"},
		{"UnknownKey", "hooks:\n  - {name: a, topic: t, command: c, trigger: x}\n", "trigger"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Parse() error = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hooks.yaml")
	if err := os.WriteFile(path, []byte("hooks:\n  - {topic: forms.>, command: 'true'}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	hooks, err := LoadFile(path)
	if err != nil || len(hooks) != 1 {
		t.Fatalf("LoadFile = %v, %v", hooks, err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
