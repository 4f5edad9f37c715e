package cli

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestModeGraphPath(t *testing.T) {
	g := testGraph(t)

	tests := []struct {
		name string
		from string
		to   string
		want []string
	}{
		{"same_mode", "exec", "exec", nil},
		{"enter_one", "shell", "exec", []string{"enter exec"}},
		{"enter_two", "shell", "config", []string{"enter exec", "enter config"}},
		{"exit_two", "config", "shell", []string{"exit config", "exit exec"}},
		{"exit_one", "config", "exec", []string{"exit config"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := g.Path(tt.from, tt.to)
			if err != nil {
				t.Fatalf("Path(%s, %s) error: %v", tt.from, tt.to, err)
			}
			var got []string
			for _, step := range path {
				got = append(got, step.String())
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Path(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestModeGraphPathSiblings(t *testing.T) {
	g := testGraph(t)
	if err := g.Add("exec", &CommandMode{Name: "vrf", Prompt: regexp.MustCompile(`\(vrf\)#`), EnterCommand: "vrf", ExitCommand: "exit"}); err != nil {
		t.Fatal(err)
	}

	path, err := g.Path("config", "vrf")
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 2 || path[0].String() != "exit config" || path[1].String() != "enter vrf" {
		t.Errorf("unexpected path %v", path)
	}
}

func TestModeGraphPathErrors(t *testing.T) {
	g := testGraph(t)
	if err := g.Add("", &CommandMode{Name: "island", Prompt: regexp.MustCompile(`%`)}); err != nil {
		t.Fatal(err)
	}

	for _, pair := range [][2]string{{"shell", "nowhere"}, {"nowhere", "shell"}, {"config", "island"}} {
		if _, err := g.Path(pair[0], pair[1]); !errors.Is(err, ErrNoModePath) {
			t.Errorf("Path(%s, %s) error = %v, want ErrNoModePath", pair[0], pair[1], err)
		}
	}
}

func TestModeGraphAdd(t *testing.T) {
	g := testGraph(t)

	if err := g.Add("", &CommandMode{Name: "shell", Prompt: regexp.MustCompile(`x`)}); err == nil {
		t.Error("expected error for duplicate mode")
	}
	if err := g.Add("missing", &CommandMode{Name: "child", Prompt: regexp.MustCompile(`x`)}); err == nil {
		t.Error("expected error for unknown parent")
	}
	if err := g.Add("", &CommandMode{}); err == nil {
		t.Error("expected error for unnamed mode")
	}

	if p := g.Parent("config"); p == nil || p.Name != "exec" {
		t.Errorf("Parent(config) = %v, want exec", p)
	}
	if p := g.Parent("shell"); p != nil {
		t.Errorf("Parent(shell) = %v, want nil", p.Name)
	}
	if got := len(g.Prompts()); got != 3 {
		t.Errorf("Prompts() returned %d prompts, want 3", got)
	}
}

func TestModeGraphDetect(t *testing.T) {
	g := testGraph(t)

	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"shell", "Last login: today\r\nadmin@sw:~$ ", "shell"},
		{"exec", "banner\nsw> ", "exec"},
		{"config", "sw(config)# ", "config"},
		{"ansi", "\x1b[1msw>\x1b[0m ", "exec"},
		{"prompt_not_last", "sw> \nstill booting", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := g.Detect(tt.output)
			if tt.want == "" {
				if ok {
					t.Errorf("Detect(%q) = %s, want no mode", tt.output, m.Name)
				}
				return
			}
			if !ok || m.Name != tt.want {
				t.Errorf("Detect(%q) = %v, want %s", tt.output, m, tt.want)
			}
		})
	}
}

func TestCredentials(t *testing.T) {
	var c Credentials
	c.Set("admin", "secret")
	if c.Username() != "admin" || c.Password() != "secret" {
		t.Errorf("got %s/%s", c.Username(), c.Password())
	}
	c.Set("other", "pw")
	if c.Username() != "other" {
		t.Errorf("Username() = %s after reset", c.Username())
	}
}
