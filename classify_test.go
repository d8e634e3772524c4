package torproc

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantClass   LineClass
		wantBody    string
		wantPercent uint8
		wantErr     error
	}{
		{
			name:      "notice",
			raw:       "Apr 01 12:00:00.000 [notice] Opening Socks listener\n",
			wantClass: LineInfo,
			wantBody:  "[notice] Opening Socks listener",
		},
		{
			name:        "bootstrap 50",
			raw:         "Apr 01 12:00:01.000 [notice] Bootstrapped 50%: Loading relay descriptors\n",
			wantClass:   LineBootstrap,
			wantBody:    "[notice] Bootstrapped 50%: Loading relay descriptors",
			wantPercent: 50,
		},
		{
			name:        "bootstrap 100",
			raw:         "Apr 01 12:00:02.000 [notice] Bootstrapped 100%: Done\n",
			wantClass:   LineBootstrap,
			wantBody:    "[notice] Bootstrapped 100%: Done",
			wantPercent: 100,
		},
		{
			name:        "bootstrap 0",
			raw:         "Apr 01 12:00:02.000 [notice] Bootstrapped 0%: Starting\n",
			wantClass:   LineBootstrap,
			wantBody:    "[notice] Bootstrapped 0%: Starting",
			wantPercent: 0,
		},
		{
			name:      "bootstrap without percent",
			raw:       "Apr 01 12:00:00.000 [notice] Bootstrapped XX%: Broken\n",
			wantClass: LineBootstrap,
			wantBody:  "[notice] Bootstrapped XX%: Broken",
			wantErr:   ErrInvalidBootstrapLine,
		},
		{
			name:      "bootstrap percent overflows",
			raw:       "Apr 01 12:00:00.000 [notice] Bootstrapped 300%: Broken\n",
			wantClass: LineBootstrap,
			wantBody:  "[notice] Bootstrapped 300%: Broken",
			wantErr:   ErrInvalidBootstrapLine,
		},
		{
			name:      "bootstrap missing separator",
			raw:       "Apr 01 12:00:00.000 [notice] Bootstrapped 10%\n",
			wantClass: LineBootstrap,
			wantBody:  "[notice] Bootstrapped 10%",
			wantErr:   ErrInvalidBootstrapLine,
		},
		{
			name:      "warn",
			raw:       "Apr 01 12:00:00.000 [warn] Could not bind\n",
			wantClass: LineWarning,
			wantBody:  "[warn] Could not bind",
		},
		{
			name:      "err",
			raw:       "Apr 01 12:00:00.500 [err] Reading config failed\n",
			wantClass: LineError,
			wantBody:  "[err] Reading config failed",
		},
		{
			name:      "other severity",
			raw:       "Apr 01 12:00:00.500 [info] circuit built\n",
			wantClass: LineOther,
			wantBody:  "[info] circuit built",
		},
		{
			name:      "no trailing newline",
			raw:       "Apr 01 12:00:00.500 [warn] last words",
			wantClass: LineWarning,
			wantBody:  "[warn] last words",
		},
		{
			name:      "crlf line ending",
			raw:       "Apr 01 12:00:00.500 [notice] hello\r\n",
			wantClass: LineInfo,
			wantBody:  "[notice] hello",
		},
		{
			name:      "empty body",
			raw:       "Apr 01 12:00:00.500 \n",
			wantClass: LineOther,
			wantBody:  "",
		},
		{
			name:      "short line",
			raw:       "hi\n",
			wantClass: LineMalformed,
			wantErr:   ErrInvalidLogLine,
		},
		{
			name:      "one short of minimum",
			raw:       strings.Repeat("x", MinLineLen-1),
			wantClass: LineMalformed,
			wantErr:   ErrInvalidLogLine,
		},
		{
			name:      "empty",
			raw:       "",
			wantClass: LineMalformed,
			wantErr:   ErrInvalidLogLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := ClassifyLine(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ClassifyLine() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("ClassifyLine() unexpected error: %v", err)
			}

			if line.Class != tt.wantClass {
				t.Errorf("Class = %v, want %v", line.Class, tt.wantClass)
			}
			if line.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", line.Body, tt.wantBody)
			}
			if line.Percent != tt.wantPercent {
				t.Errorf("Percent = %d, want %d", line.Percent, tt.wantPercent)
			}
		})
	}
}

func TestClassifyLineTimestamp(t *testing.T) {
	line, err := ClassifyLine("Apr 01 12:00:00.000 [notice] Opening Socks listener\n")
	if err != nil {
		t.Fatal(err)
	}
	if line.Timestamp != "Apr 01 12:00:00.000" {
		t.Errorf("Timestamp = %q, want %q", line.Timestamp, "Apr 01 12:00:00.000")
	}
}

func TestClassifyLineBootstrapError(t *testing.T) {
	_, err := ClassifyLine("Apr 01 12:00:00.000 [notice] Bootstrapped XX%: Broken\n")

	var bootstrapErr *BootstrapLineError
	if !errors.As(err, &bootstrapErr) {
		t.Fatalf("error = %T, want *BootstrapLineError", err)
	}
	if bootstrapErr.Line != "[notice] Bootstrapped XX%: Broken" {
		t.Errorf("Line = %q", bootstrapErr.Line)
	}
	if KindOf(err) != KindInvalidBootstrapLine {
		t.Errorf("KindOf = %v, want %v", KindOf(err), KindInvalidBootstrapLine)
	}
}

// Classification depends on the body only, never on the timestamp text.
func TestClassifyLineIgnoresTimestamp(t *testing.T) {
	body := "[notice] Bootstrapped 42%: Loading"
	a, errA := ClassifyLine("Apr 01 12:00:00.000 " + body)
	b, errB := ClassifyLine("[err] xxxxxxxxxxxxx " + body)
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v, %v", errA, errB)
	}
	if a.Class != b.Class || a.Percent != b.Percent || a.Body != b.Body {
		t.Errorf("classification differs: %+v vs %+v", a, b)
	}
}

func TestLineClassString(t *testing.T) {
	classes := map[LineClass]string{
		LineMalformed: "malformed",
		LineInfo:      "info",
		LineBootstrap: "bootstrap",
		LineWarning:   "warning",
		LineError:     "error",
		LineOther:     "other",
		LineClass(99): "unknown",
	}
	for class, want := range classes {
		if got := class.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(class), got, want)
		}
	}
}
