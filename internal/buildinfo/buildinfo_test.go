package buildinfo

import "testing"

func TestShortFallbackChain(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)

	cases := []struct {
		version, commit, date string
		want                  string
	}{
		{"v1.2.0", "abc1234", "2026-08-26", "v1.2.0"},
		{"dev", "abc1234", "2026-08-26", "abc1234"},
		{"dev", "unknown", "2026-08-26", "dev@2026-08-26"},
		{"dev", "unknown", "unknown", "dev"},
		{"", "", "", "dev"},
	}
	for _, c := range cases {
		Version, Commit, Date = c.version, c.commit, c.date
		if got := Short(); got != c.want {
			t.Errorf("Short() with (%q,%q,%q) = %q, want %q", c.version, c.commit, c.date, got, c.want)
		}
	}
}
