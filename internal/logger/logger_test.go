package logger

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "resume text", limit: 0, expect: ""},
		{name: "shorter than limit", input: "resume", limit: 10, expect: "resume"},
		{name: "truncates with ellipsis", input: "resume text", limit: 6, expect: "resume..."},
		{name: "counts runes", input: "简历文本内容", limit: 2, expect: "简历..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestNewBuildsBothEncodings(t *testing.T) {
	t.Parallel()

	for _, json := range []bool{false, true} {
		l, err := New(json, true)
		if err != nil {
			t.Fatalf("New(json=%v) error: %v", json, err)
		}
		if !l.Core().Enabled(-1) {
			t.Fatalf("expected debug level enabled")
		}
	}
	if OrNop(nil) == nil {
		t.Fatalf("expected nop logger")
	}
}
