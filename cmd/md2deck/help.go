package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2deck <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert markdown articles to slide decks")
	fmt.Fprintln(w, "  info       Show a generation record")
	fmt.Fprintln(w, "  doctor     Check Chrome, cloud credentials and the system")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2deck help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2deck convert <source> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a markdown article, or every article under a directory, to slide decks.")
	fmt.Fprintln(w, "Unchanged sources are skipped unless --force-regenerate is given.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  source    Markdown file or directory (.md, .markdown)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Targets:")
	fmt.Fprintln(w, "  -o, --output <t>              binary, cloud, notes or all (repeatable, default binary,notes)")
	fmt.Fprintln(w, "      --out-dir <dir>           Artifact directory (default: slides/ next to the source)")
	fmt.Fprintln(w, "      --credentials <ref>       Cloud credentials: token file, key file or env:VAR")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Layout:")
	fmt.Fprintln(w, "      --theme <name>            light, dark, technical or a custom theme")
	fmt.Fprintln(w, "      --aspect-ratio <r>        16:9, 4:3, 16:10")
	fmt.Fprintln(w, "      --max-words-per-slide <n> Word budget of a content slide (default 120)")
	fmt.Fprintln(w, "      --max-code-lines <n>      Lines per code slide (default 20)")
	fmt.Fprintln(w, "      --min-slides <n>          Warn below this deck length (default 3)")
	fmt.Fprintln(w, "      --date-format <f>         Title slide date format")
	fmt.Fprintln(w, "                                Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D")
	fmt.Fprintln(w, "                                Presets (case-insensitive): iso, european, us, long")
	fmt.Fprintln(w, "                                Use [text] to escape literals: [Date]: YYYY")
	fmt.Fprintln(w, "      --asset-path <dir>        Custom theme and template directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run:")
	fmt.Fprintln(w, "      --force-regenerate        Render even if nothing changed")
	fmt.Fprintln(w, "      --dry-run                 Print the slide outline, write nothing")
	fmt.Fprintln(w, "      --watch                   Convert again whenever the source changes")
	fmt.Fprintln(w, "      --ledger-db <path>        SQLite ledger shared by every source")
	fmt.Fprintln(w, "  -w, --workers <n>             Parallel conversions (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>             Per-file timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "  -c, --config <name>           Config file name or path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                   Only show errors")
	fmt.Fprintln(w, "  -v, --verbose                 Show detailed timing and debug logs")
	fmt.Fprintln(w, "      --log-format <f>          console or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MD2DECK_CONFIG, MD2DECK_THEME, MD2DECK_OUTPUT, MD2DECK_OUT_DIR, ...")
	fmt.Fprintln(w, "  override the config file; flags override both. A .env file is loaded.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0 success, 1 failure, 2 usage, 3 I/O, 4 browser, 5 malformed document, 6 authentication")
}

// printInfoUsage prints usage for the info command.
func printInfoUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2deck info <record.ledger.yaml> [--json]")
	fmt.Fprintln(w, "       md2deck info [source] --ledger-db <path> [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show the generation record of a source. With --ledger-db and no")
	fmt.Fprintln(w, "source, list every record of the database.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --ledger-db <path>    SQLite ledger to query")
	fmt.Fprintln(w, "      --json                Print JSON")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2deck doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that Chrome, cloud credentials and the temp directory are usable.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Print JSON")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "info":
		printInfoUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2deck version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: md2deck help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
