package main

// Notes:
// - Chrome is faked with ROD_BROWSER_BIN pointing at a shell script, so the
//   launcher lookup is never reached. Unix only for that case.
// - Tests that execute the stub are not parallel: a fork from a sibling test
//   while the stub is being written makes exec fail with ETXTBSY.
// - Container detection also reads /.dockerenv from the real filesystem;
//   tests set ROD_NO_SANDBOX=1 so a container host adds no warning.

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func fakeChrome(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script browser stub needs a unix shell")
	}
	path := writeFile(t, filepath.Join(t.TempDir(), "chrome"), "#!/bin/sh\necho 'Chromium 124.0.6367.60'\n")
	if err := os.Chmod(path, 0o700); err != nil { // #nosec G302 -- test stub must be executable
		t.Fatal(err)
	}
	return path
}

func TestRunDoctor_Ready(t *testing.T) {
	vars := map[string]string{
		"ROD_BROWSER_BIN":     fakeChrome(t),
		"ROD_NO_SANDBOX":      "1",
		"MD2DECK_CLOUD_TOKEN": "ya29.token",
	}
	r := runDoctor(func(k string) string { return vars[k] })

	if r.Status != doctorReady {
		t.Fatalf("Status = %s, warnings = %v, errors = %v", r.Status, r.Warnings, r.Errors)
	}
	if !r.Chrome.Found || r.Chrome.Version != "Chromium 124.0.6367.60" || r.Chrome.Sandbox {
		t.Errorf("Chrome = %+v", r.Chrome)
	}
	if !r.Cloud.Configured || r.Cloud.Source != "MD2DECK_CLOUD_TOKEN" {
		t.Errorf("Cloud = %+v", r.Cloud)
	}
	if !r.System.TempWritable {
		t.Error("temp dir reported not writable")
	}
}

func TestRunDoctor_MissingChrome(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"ROD_BROWSER_BIN": filepath.Join(t.TempDir(), "no-chrome")}
	r := runDoctor(func(k string) string { return vars[k] })

	if r.Status != doctorErrors || r.Chrome.Found {
		t.Fatalf("Status = %s, Chrome = %+v", r.Status, r.Chrome)
	}
	if len(r.Errors) == 0 || !strings.Contains(r.Errors[0], "Chrome not found at") {
		t.Errorf("Errors = %v", r.Errors)
	}
}

func TestRunDoctor_CloudAndCIWarnings(t *testing.T) {
	vars := map[string]string{
		"ROD_BROWSER_BIN":     fakeChrome(t),
		"GITHUB_ACTIONS":      "true",
		"MD2DECK_CREDENTIALS": "env:SLIDES_TOKEN",
	}
	r := runDoctor(func(k string) string { return vars[k] })

	if r.Status != doctorWarnings {
		t.Fatalf("Status = %s, errors = %v", r.Status, r.Errors)
	}
	if !r.Env.CI || r.Cloud.Configured {
		t.Errorf("Env = %+v, Cloud = %+v", r.Env, r.Cloud)
	}
	joined := strings.Join(r.Warnings, "\n")
	if !strings.Contains(joined, "SLIDES_TOKEN") || !strings.Contains(joined, "ROD_NO_SANDBOX") {
		t.Errorf("Warnings = %v", r.Warnings)
	}
}

func TestIsContainer_EnvSignals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
		hint string
	}{
		{"explicit", map[string]string{"MD2DECK_CONTAINER": "1"}, "MD2DECK_CONTAINER=1"},
		{"podman", map[string]string{"container": "podman"}, "container=podman"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, hint := isContainer(func(k string) string { return tt.vars[k] })
			if !got {
				t.Fatal("container not detected")
			}
			// /.dockerenv wins over the container variable on Docker hosts.
			if hint != tt.hint && hint != "/.dockerenv" {
				t.Errorf("hint = %q, want %q", hint, tt.hint)
			}
		})
	}
}

func TestRunDoctorCmd_Output(t *testing.T) {
	chrome := fakeChrome(t)
	vars := map[string]string{"ROD_BROWSER_BIN": chrome, "ROD_NO_SANDBOX": "1", "MD2DECK_CLOUD_TOKEN": "tok"}

	env := newTestEnv(vars)
	if code := runDoctorCmd(nil, env.Environment); code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	for _, want := range []string{"md2deck doctor", "[OK] Found at " + chrome, "Configured from MD2DECK_CLOUD_TOKEN", "Targets: binary ready, cloud ready, notes ready", "Status: Ready to convert"} {
		if !strings.Contains(env.stdout.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, env.stdout)
		}
	}

	jsonEnv := newTestEnv(vars)
	if code := runDoctorCmd([]string{"--json"}, jsonEnv.Environment); code != ExitSuccess {
		t.Fatalf("json exit = %d", code)
	}
	var got doctorResult
	if err := json.Unmarshal(jsonEnv.stdout.Bytes(), &got); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
	if got.Status != doctorReady || !got.Cloud.Configured {
		t.Errorf("JSON result = %+v", got)
	}

	bad := newTestEnv(map[string]string{"ROD_BROWSER_BIN": filepath.Join(t.TempDir(), "none")})
	if code := runDoctorCmd(nil, bad.Environment); code != ExitGeneral {
		t.Errorf("missing chrome exit = %d, want %d", code, ExitGeneral)
	}
	if !strings.Contains(bad.stdout.String(), "Targets: binary unavailable, cloud unavailable, notes ready") {
		t.Errorf("readiness line missing:\n%s", bad.stdout)
	}
	if code := runDoctorCmd([]string{"--yaml"}, newTestEnv(nil).Environment); code != ExitUsage {
		t.Errorf("unknown flag exit = %d, want %d", code, ExitUsage)
	}
}

// Not parallel: replaces the package-level browser lookup.
func TestCheckChrome_LauncherLookup(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	lookPath = func() (string, bool) { return "", false }
	var r doctorResult
	checkChrome(&r)
	if r.Chrome.Found || len(r.Errors) != 1 || !strings.Contains(r.Errors[0], "ROD_BROWSER_BIN") {
		t.Errorf("not found: Chrome = %+v, Errors = %v", r.Chrome, r.Errors)
	}

	chrome := fakeChrome(t)
	lookPath = func() (string, bool) { return chrome, true }
	r = doctorResult{Env: envInfo{NoSandbox: "1"}}
	checkChrome(&r)
	if !r.Chrome.Found || r.Chrome.Path != chrome || r.Chrome.Sandbox {
		t.Errorf("found: Chrome = %+v", r.Chrome)
	}
}
