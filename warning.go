package md2deck

import "fmt"

// Stage identifies the pipeline stage that raised a warning.
type Stage string

const (
	StageParser  Stage = "parser"
	StagePlanner Stage = "planner"
	StageLedger  Stage = "ledger"
)

// WarningCode classifies non-fatal findings.
type WarningCode string

const (
	WarnMissingLanguage       WarningCode = "missing-language"
	WarnImageNotFound         WarningCode = "image-not-found"
	WarnHeadingLevel          WarningCode = "heading-level"
	WarnEmptyListItem         WarningCode = "empty-list-item"
	WarnContentBeforeSection  WarningCode = "content-before-section"
	WarnSkippedBlock          WarningCode = "skipped-block"
	WarnSynthesizedConclusion WarningCode = "synthesized-conclusion"
	WarnImageSkipped          WarningCode = "image-skipped"
	WarnBelowMinimumSlides    WarningCode = "below-minimum-slides"
	WarnDateFormat            WarningCode = "date-format"
	WarnLedgerRead            WarningCode = "ledger-read"
	WarnLedgerWrite           WarningCode = "ledger-write"
)

// Warning is a non-fatal finding surfaced to the caller.
// Parser warnings carry a source line; planner warnings usually do not.
type Warning struct {
	Stage   Stage       `json:"stage" yaml:"stage"`
	Code    WarningCode `json:"code" yaml:"code"`
	Line    int         `json:"line,omitempty" yaml:"line,omitempty"`
	Message string      `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", w.Stage, w.Line, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

// ParserWarnings filters ws down to warnings raised while parsing.
func ParserWarnings(ws []Warning) []Warning { return filterStage(ws, StageParser) }

// PlannerWarnings filters ws down to warnings raised while planning.
func PlannerWarnings(ws []Warning) []Warning { return filterStage(ws, StagePlanner) }

func filterStage(ws []Warning, stage Stage) []Warning {
	var out []Warning
	for _, w := range ws {
		if w.Stage == stage {
			out = append(out, w)
		}
	}
	return out
}
