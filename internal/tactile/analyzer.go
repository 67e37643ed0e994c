package tactile

import (
	"regexp"
	"strconv"
	"strings"
)

// OutputAnalyzer extracts diagnostics from compiler output.
type OutputAnalyzer struct{}

// NewOutputAnalyzer creates a new output analyzer.
func NewOutputAnalyzer() *OutputAnalyzer {
	return &OutputAnalyzer{}
}

var (
	// file(line) : error: message, or file(line,col): error X3004: message
	parenDiagnostic = regexp.MustCompile(`^(.+?)\((\d+)(?:,(\d+))?\)\s*:?\s*(?i:(error|warning))[^:]*:\s*(.*)$`)

	// ERROR: 0:12: 'foo' : undeclared identifier
	glslangDiagnostic = regexp.MustCompile(`^(?i:(error|warning)):\s*([^:]+):(\d+):\s*(.*)$`)
)

// AnalyzeBuildOutput extracts errors and warnings in the formats shaderc
// passes through from its HLSL and GLSL backends.
func (a *OutputAnalyzer) AnalyzeBuildOutput(output string) BuildAnalysis {
	analysis := BuildAnalysis{
		RawOutput:   output,
		Diagnostics: make([]Diagnostic, 0),
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var d Diagnostic
		if m := parenDiagnostic.FindStringSubmatch(line); m != nil {
			d = Diagnostic{
				File:     m[1],
				Line:     atoi(m[2]),
				Column:   atoi(m[3]),
				Severity: strings.ToLower(m[4]),
				Message:  strings.TrimSpace(m[5]),
			}
		} else if m := glslangDiagnostic.FindStringSubmatch(line); m != nil {
			d = Diagnostic{
				File:     m[2],
				Line:     atoi(m[3]),
				Severity: strings.ToLower(m[1]),
				Message:  strings.TrimSpace(m[4]),
			}
		} else {
			continue
		}

		analysis.Diagnostics = append(analysis.Diagnostics, d)
		if d.Severity == "error" {
			analysis.Errors++
		} else {
			analysis.Warnings++
		}
	}

	analysis.Success = analysis.Errors == 0
	return analysis
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// BuildAnalysis contains extracted build information.
type BuildAnalysis struct {
	Success     bool         `json:"success"`
	Errors      int          `json:"errors"`
	Warnings    int          `json:"warnings"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	RawOutput   string       `json:"-"`
}

// Diagnostic represents a single build error or warning.
type Diagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// String renders the diagnostic the way compilers print it.
func (d Diagnostic) String() string {
	loc := d.File
	if d.Line > 0 {
		loc += ":" + strconv.Itoa(d.Line)
		if d.Column > 0 {
			loc += ":" + strconv.Itoa(d.Column)
		}
	}
	return loc + ": " + d.Severity + ": " + d.Message
}
