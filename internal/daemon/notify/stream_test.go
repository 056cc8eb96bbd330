package notify

import "testing"

func TestClassifyLine(t *testing.T) {
	cases := []struct {
		name string
		line string
		want EventType
		ok   bool
	}{
		{
			name: "lock",
			line: `{"eventMessage":"Distributed notification: com.apple.screenIsLocked","timestamp":"2025-06-02 09:00:00"}`,
			want: EventScreenLocked,
			ok:   true,
		},
		{
			name: "unlock",
			line: `{"eventMessage":"Distributed notification: com.apple.screenIsUnlocked"}`,
			want: EventScreenUnlocked,
			ok:   true,
		},
		{
			name: "wake",
			line: `{"eventMessage":"NSWorkspace screensDidWake posted"}`,
			want: EventScreensDidWake,
			ok:   true,
		},
		{
			name: "params",
			line: `{"eventMessage":"applicationDidChangeScreenParameters"}`,
			want: EventScreenParamsChanged,
			ok:   true,
		},
		{
			name: "unrelated message",
			line: `{"eventMessage":"com.apple.somethingElse"}`,
		},
		{
			name: "not json",
			line: `Filtering the log data using "eventMessage CONTAINS ..."`,
		},
		{
			name: "empty",
			line: ``,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ev, ok := classifyLine([]byte(c.line))
			if ok != c.ok {
				t.Fatalf("ok = %v, want %v", ok, c.ok)
			}
			if ok && ev.Type != c.want {
				t.Fatalf("type = %v, want %v", ev.Type, c.want)
			}
		})
	}
}

func TestEventTypeString(t *testing.T) {
	if got := EventScreenLocked.String(); got != "screen-locked" {
		t.Fatalf("String() = %q", got)
	}
	if got := EventType(99).String(); got != "unknown" {
		t.Fatalf("String() = %q", got)
	}
}
