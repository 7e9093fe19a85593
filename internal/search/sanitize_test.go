package search

import "testing"

func TestSanitizeFTSQueryDropsBooleanOperators(t *testing.T) {
	got := sanitizeFTSQuery("cats AND dogs OR birds")
	if got != `"cats" "dogs" "birds"` {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeFTSQueryDropsWildcardsAndColumnFilters(t *testing.T) {
	got := sanitizeFTSQuery("title:foo bar* baz")
	if got != `"baz"` {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeFTSQueryStripsEmbeddedQuotes(t *testing.T) {
	got := sanitizeFTSQuery(`he said "hello"`)
	if got != `"he" "said" "hello"` {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeFTSQueryAllOperatorsYieldsEmpty(t *testing.T) {
	if got := sanitizeFTSQuery("AND OR NOT NEAR"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
