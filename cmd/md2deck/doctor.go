package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2deck/internal/gslides"
	"github.com/alnah/go-md2deck/internal/hints"
)

// Doctor statuses.
const (
	doctorReady    = "ready"
	doctorWarnings = "warnings"
	doctorErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo `json:"chrome"`
	Cloud    cloudInfo  `json:"cloud"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results. Only the binary
// target needs a browser.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// cloudInfo reports whether the cloud target has a usable credential.
type cloudInfo struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// lookPath locates a browser; tests replace it.
var lookPath = launcher.LookPath

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	flags, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	result := runDoctor(env.Getenv)

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == doctorErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(getenv func(string) string) *doctorResult {
	result := &doctorResult{
		Status: doctorReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  getenv("ROD_NO_SANDBOX"),
			BrowserBin: getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkCloud(result, getenv)
	checkEnvironment(result, getenv)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = doctorErrors
	} else if len(result.Warnings) > 0 {
		result.Status = doctorWarnings
	}

	return result
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = lookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN (needed by the binary target)")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- browser path from env or launcher
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkCloud resolves the cloud credential without contacting the API.
// A missing credential is a warning: only the cloud target needs it.
func checkCloud(result *doctorResult, getenv func(string) string) {
	ref := getenv("MD2DECK_CREDENTIALS")
	if _, err := gslides.TokenSource(context.Background(), ref, getenv); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Cloud target unavailable: %v", err))
		return
	}

	result.Cloud.Configured = true
	result.Cloud.Source = ref
	if ref == "" {
		result.Cloud.Source = gslides.EnvToken
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)
	result.Env.CI = hints.InCI(getenv)

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("MD2DECK_CONTAINER") == "1" {
		return true, "MD2DECK_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used by the browser is writable.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	f, err := os.CreateTemp(tmpDir, "md2deck-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = f.Close()
	_ = os.Remove(filepath.Clean(f.Name()))
	result.System.TempWritable = true
}

// check is one printed diagnostic line.
type check struct {
	level string // OK, WARN or ERROR
	text  string
}

func passed(format string, args ...any) check {
	return check{"OK", fmt.Sprintf(format, args...)}
}

func printSection(w io.Writer, title string, checks []check) {
	if len(checks) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for _, c := range checks {
		fmt.Fprintf(w, "  [%s] %s\n", c.level, c.text)
	}
	fmt.Fprintln(w)
}

// targetReadiness reports which output targets can run on this machine.
func targetReadiness(r *doctorResult) string {
	state := func(ready bool) string {
		if ready {
			return "ready"
		}
		return "unavailable"
	}
	return fmt.Sprintf("binary %s, cloud %s, notes ready",
		state(r.Chrome.Found && r.System.TempWritable), state(r.Cloud.Configured))
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "md2deck doctor")
	fmt.Fprintln(w)

	var chrome []check
	if r.Chrome.Found {
		chrome = append(chrome, passed("Found at %s", r.Chrome.Path))
		if r.Chrome.Version != "" {
			chrome = append(chrome, passed("Version: %s", r.Chrome.Version))
		}
		if r.Chrome.Sandbox {
			chrome = append(chrome, passed("Sandbox: enabled"))
		} else {
			chrome = append(chrome, passed("Sandbox: disabled (ROD_NO_SANDBOX=1)"))
		}
	} else {
		chrome = append(chrome, check{"ERROR", "Not found"})
	}
	printSection(w, "Chrome/Chromium (binary target)", chrome)

	cloud := []check{{"WARN", "Not configured"}}
	if r.Cloud.Configured {
		cloud = []check{passed("Configured from %s", r.Cloud.Source)}
	}
	printSection(w, "Cloud credentials (cloud target)", cloud)

	env := []check{passed("Platform: %s/%s", r.Env.OS, r.Env.Arch)}
	if r.Env.Container {
		env = append(env, passed("Container: detected (%s)", r.Env.ContainerHint))
	}
	if r.Env.CI {
		env = append(env, passed("CI: detected"))
	}
	printSection(w, "Environment", env)

	system := []check{{"ERROR", "Temp directory: not writable"}}
	if r.System.TempWritable {
		system = []check{passed("Temp directory: writable")}
	}
	printSection(w, "System", system)

	var warnings, errs []check
	for _, msg := range r.Warnings {
		warnings = append(warnings, check{"WARN", msg})
	}
	for _, msg := range r.Errors {
		errs = append(errs, check{"ERROR", msg})
	}
	printSection(w, "Warnings:", warnings)
	printSection(w, "Errors:", errs)

	fmt.Fprintf(w, "Targets: %s\n", targetReadiness(r))
	switch r.Status {
	case doctorReady:
		fmt.Fprintln(w, "Status: Ready to convert")
	case doctorWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case doctorErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
