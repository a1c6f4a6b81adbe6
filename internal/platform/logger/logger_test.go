package logger

import (
	"bytes"
	"context"
	"testing"

	kit "issuebridge/internal/platform/testkit"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"trace": "trace", "debug": "debug", "warning": "warn", "error": "error",
		"off": "disabled", "": "info", " nonsense ": "info",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInitNamedAndRequest(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{
		Level:        "debug",
		Format:       "json",
		Service:      "issuebridge-test",
		Writer:       &buf,
		StaticFields: map[string]string{"build": "test"},
	})

	Named("resubmit").Info().Msg("queue drained")
	C(WithRequest(context.Background(), "req-9")).Info().Msg("handled")
	C(context.Background()).Debug().Msg("bare")

	out := buf.String()
	kit.MustContain(t, out, `"component":"resubmit"`)
	kit.MustContain(t, out, `"request_id":"req-9"`)
	kit.MustContain(t, out, `"service":"issuebridge-test"`)
	kit.MustContain(t, out, `"build":"test"`)
	kit.MustContain(t, out, "bare")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_CALLER", "true")
	t.Setenv("LOG_SAMPLE_EVERY", "3")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "json" || !opt.WithCaller || opt.SampleEvery != 3 {
		t.Fatalf("FromEnv = %+v", opt)
	}
	if opt.Service != "issuebridge" {
		t.Fatalf("default service = %q", opt.Service)
	}
}
