package torproc

import (
	"errors"
	"testing"
)

// FuzzClassifyLine checks that arbitrary router output never panics the
// classifier and that results stay internally consistent.
func FuzzClassifyLine(f *testing.F) {
	f.Add("Apr 01 12:00:00.000 [notice] Opening Socks listener\n")
	f.Add("Apr 01 12:00:01.000 [notice] Bootstrapped 50%: Loading relay descriptors\n")
	f.Add("Apr 01 12:00:00.000 [notice] Bootstrapped XX%: Broken\n")
	f.Add("Apr 01 12:00:00.000 [warn] Could not bind\n")
	f.Add("Apr 01 12:00:00.500 [err] Reading config failed\n")
	f.Add("hi\n")
	f.Add("")

	f.Fuzz(func(t *testing.T, raw string) {
		line, err := ClassifyLine(raw)

		if len(raw) < MinLineLen {
			if !errors.Is(err, ErrInvalidLogLine) || line.Class != LineMalformed {
				t.Fatalf("short line %q: class %v, err %v", raw, line.Class, err)
			}
			return
		}

		if len(line.Timestamp) != TimestampLen {
			t.Errorf("timestamp length %d, want %d", len(line.Timestamp), TimestampLen)
		}
		if line.Class == LineMalformed {
			t.Errorf("long line %q classified malformed", raw)
		}
		if err != nil && line.Class != LineBootstrap {
			t.Errorf("error %v on non-bootstrap class %v", err, line.Class)
		}
		if line.Class != LineBootstrap && line.Percent != 0 {
			t.Errorf("percent %d on class %v", line.Percent, line.Class)
		}
	})
}
