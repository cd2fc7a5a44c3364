// Package hints appends actionable advice to CLI error messages.
// Every hint is formatted as "\n  hint: <text>".
package hints

import "strings"

// ciVars are set by the CI systems whose runners need ROD_NO_SANDBOX.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// InCI reports whether getenv shows a known CI runner.
func InCI(getenv func(string) string) bool {
	for _, v := range ciVars {
		if getenv(v) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect returns hints for headless browser launch failures,
// which only affect the binary deck target. inContainer comes from the
// caller's container detection.
func ForBrowserConnect(getenv func(string) string, inContainer bool) string {
	var hints []string

	if (InCI(getenv) || inContainer) && getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	hints = append(hints, "or drop the binary target with --output notes")

	return formatHints(hints)
}

// ForCredentials returns hints for cloud deck authentication failures.
func ForCredentials(credentialRef string) string {
	if credentialRef == "" {
		return format("pass --credentials <token.json|env:VAR> or set MD2DECK_CLOUD_TOKEN")
	}
	if strings.HasPrefix(credentialRef, "env:") {
		return format("the access token in " + strings.TrimPrefix(credentialRef, "env:") + " is missing or expired")
	}
	return format("refresh " + credentialRef + " (needs access_token, or refresh_token with client_id/client_secret, or a service account key)")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for long decks or slow networks, use --timeout")
}

// ForConfigNotFound suggests --config and the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-md2deck") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable, or use --out-dir")
}

// ForThemeNotFound lists the themes that can be used instead.
func ForThemeNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available themes: " + strings.Join(available, ", "))
}

// ForMalformedDocument reminds the user of the expected article shape.
func ForMalformedDocument() string {
	return format("articles start with a --- metadata block holding at least a title, and every ``` fence needs a closing ```")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
