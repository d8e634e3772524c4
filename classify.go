package torproc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// LineClass is the severity class of a router log line
type LineClass int

const (
	// LineMalformed is a line too short to carry the timestamp prefix
	LineMalformed LineClass = iota
	// LineInfo is a [notice] line other than a bootstrap notice
	LineInfo
	// LineBootstrap is a "[notice] Bootstrapped N%: ..." line
	LineBootstrap
	// LineWarning is a [warn] line
	LineWarning
	// LineError is an [err] line
	LineError
	// LineOther is any other severity
	LineOther
)

// String returns the string representation of a LineClass
func (c LineClass) String() string {
	switch c {
	case LineMalformed:
		return "malformed"
	case LineInfo:
		return "info"
	case LineBootstrap:
		return "bootstrap"
	case LineWarning:
		return "warning"
	case LineError:
		return "error"
	case LineOther:
		return "other"
	default:
		return "unknown"
	}
}

// LogLine is one classified line of router output
type LogLine struct {
	// Timestamp is the fixed-width prefix, as written by the router
	Timestamp string
	// Body is the rest of the line without the separator and line ending
	Body string
	// Class is the severity class of the line
	Class LineClass
	// Percent is the bootstrap percent; only meaningful for LineBootstrap
	Percent uint8
}

var (
	bootstrapOnce sync.Once
	bootstrapRe   *regexp.Regexp
	bootstrapErr  error
)

// bootstrapRegexp compiles the bootstrap pattern once
func bootstrapRegexp() (*regexp.Regexp, error) {
	bootstrapOnce.Do(func() {
		re, err := regexp.Compile(bootstrapPattern)
		if err != nil {
			bootstrapErr = fmt.Errorf("%w: %v", ErrPatternCompile, err)
			return
		}
		bootstrapRe = re
	})
	return bootstrapRe, bootstrapErr
}

// ClassifyLine splits a raw stdout line into its timestamp and body and
// assigns a LineClass. raw may include its trailing newline.
//
// Lines shorter than MinLineLen return LineMalformed with ErrInvalidLogLine.
// A bootstrap notice without a parsable percent returns a *BootstrapLineError.
func ClassifyLine(raw string) (LogLine, error) {
	if len(raw) < MinLineLen {
		return LogLine{Class: LineMalformed}, ErrInvalidLogLine
	}

	line := LogLine{
		Timestamp: raw[:TimestampLen],
		Body:      trimLineEnding(raw[MinLineLen:]),
	}

	class, percent, err := classifyBody(line.Body)
	line.Class = class
	line.Percent = percent
	return line, err
}

// classifyBody inspects the severity tag and, for bootstrap notices, the percent
func classifyBody(body string) (LineClass, uint8, error) {
	tokens := strings.SplitN(body, " ", 3)

	switch tokens[0] {
	case tagNotice:
		if len(tokens) < 2 || tokens[1] != wordBootstrap {
			return LineInfo, 0, nil
		}
		percent, err := parseBootstrapPercent(body)
		if err != nil {
			return LineBootstrap, 0, err
		}
		return LineBootstrap, percent, nil
	case tagWarn:
		return LineWarning, 0, nil
	case tagErr:
		return LineError, 0, nil
	default:
		return LineOther, 0, nil
	}
}

// parseBootstrapPercent extracts N from "[notice] Bootstrapped N%: ..."
func parseBootstrapPercent(body string) (uint8, error) {
	re, err := bootstrapRegexp()
	if err != nil {
		return 0, err
	}

	match := re.FindStringSubmatch(body)
	idx := re.SubexpIndex(percentCaptured)
	if match == nil || idx < 0 {
		return 0, &BootstrapLineError{Line: body}
	}

	percent, err := strconv.ParseUint(match[idx], 10, 8)
	if err != nil {
		return 0, &BootstrapLineError{Line: body}
	}
	return uint8(percent), nil
}

// trimLineEnding drops one trailing "\n" and one trailing "\r"
func trimLineEnding(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
