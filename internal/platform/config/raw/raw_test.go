package raw

import "testing"

func TestConf(t *testing.T) {
	c := New().Prefix("LOG_")
	t.Setenv("LOG_LEVEL", " debug ")
	t.Setenv("LOG_CALLER", "YES")
	t.Setenv("LOG_OFF", "0")
	t.Setenv("LOG_SAMPLE_EVERY", "5")
	t.Setenv("LOG_NEG", "-2")
	t.Setenv("LOG_JUNK", "3x")

	if c.Get("LEVEL", "info") != "debug" || c.Get("MISSING", "info") != "info" {
		t.Fatalf("Get mismatch")
	}
	if !c.GetBool("CALLER", false) || c.GetBool("OFF", true) || !c.GetBool("MISSING", true) {
		t.Fatalf("GetBool mismatch")
	}
	cases := map[string]int{"SAMPLE_EVERY": 5, "NEG": 7, "JUNK": 7, "MISSING": 7}
	for k, want := range cases {
		if got := c.GetInt(k, 7); got != want {
			t.Fatalf("GetInt(%s) = %d, want %d", k, got, want)
		}
	}
}
