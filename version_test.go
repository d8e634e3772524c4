package torproc

import "testing"

func TestGetVersion(t *testing.T) {
	info := GetVersion()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.TimestampLen != len(TimestampSample) {
		t.Errorf("TimestampLen = %d, want %d", info.TimestampLen, len(TimestampSample))
	}
}
