package hints

// Notes:
// - Hints read the environment through a getenv func, so every case runs
//   in parallel with its own variables.

import (
	"strings"
	"testing"
)

func TestInCI(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		env  map[string]string
		want bool
	}{
		{map[string]string{}, false},
		{map[string]string{"CI": "true"}, true},
		{map[string]string{"CIRCLECI": "true"}, true},
		{map[string]string{"JENKINS_URL": "http://ci"}, true},
		{map[string]string{"HOME": "/root"}, false},
	} {
		if got := InCI(func(k string) string { return tt.env[k] }); got != tt.want {
			t.Errorf("InCI(%v) = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestForBrowserConnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		inContainer bool
		env         map[string]string
		want        []string
		notWant     []string
	}{
		{
			name: "ci suggests sandbox and binary",
			env:  map[string]string{"CI": "true"},
			want: []string{"hint:", "ROD_NO_SANDBOX", "ROD_BROWSER_BIN", "--output notes"},
		},
		{
			name:        "docker suggests sandbox",
			inContainer: true,
			want:        []string{"ROD_NO_SANDBOX"},
		},
		{
			name:        "sandbox already disabled",
			inContainer: true,
			env:         map[string]string{"ROD_NO_SANDBOX": "1"},
			notWant:     []string{"ROD_NO_SANDBOX"},
		},
		{
			name:    "browser binary already set",
			env:     map[string]string{"ROD_BROWSER_BIN": "/usr/bin/chromium"},
			notWant: []string{"ROD_BROWSER_BIN", "ROD_NO_SANDBOX"},
			want:    []string{"--output notes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hint := ForBrowserConnect(func(k string) string { return tt.env[k] }, tt.inContainer)
			for _, w := range tt.want {
				if !strings.Contains(hint, w) {
					t.Errorf("hint %q missing %q", hint, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(hint, nw) {
					t.Errorf("hint %q should not contain %q", hint, nw)
				}
			}
		})
	}
}

func TestForCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{name: "no reference", ref: "", want: "MD2DECK_CLOUD_TOKEN"},
		{name: "env reference", ref: "env:SLIDES_TOKEN", want: "SLIDES_TOKEN"},
		{name: "file reference", ref: "/etc/md2deck/token.json", want: "/etc/md2deck/token.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ForCredentials(tt.ref)
			if !strings.HasPrefix(got, "\n  hint: ") {
				t.Errorf("hint %q missing prefix", got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("hint %q missing %q", got, tt.want)
			}
		})
	}
}

func TestSimpleHints(t *testing.T) {
	t.Parallel()

	for name, got := range map[string]string{
		"timeout":   ForTimeout(),
		"outputDir": ForOutputDirectory(),
		"malformed": ForMalformedDocument(),
		"config":    ForConfigNotFound([]string{"dev.yaml", "/home/u/.config/go-md2deck/dev.yaml"}),
		"themes":    ForThemeNotFound([]string{"dark", "light"}),
	} {
		if !strings.HasPrefix(got, "\n  hint: ") {
			t.Errorf("%s: hint %q missing prefix", name, got)
		}
	}

	if got := ForThemeNotFound(nil); got != "" {
		t.Errorf("ForThemeNotFound(nil) = %q, want empty", got)
	}
	if got := ForConfigNotFound([]string{"/home/u/.config/go-md2deck/dev.yaml"}); !strings.Contains(got, "or create") {
		t.Errorf("ForConfigNotFound should suggest creating the user config, got %q", got)
	}
}
