package nfl

import "testing"

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"WSH": "WAS",
		"was": "WAS",
		"JAC": "JAX",
		"JAX": "JAX",
		"OAK": "LV",
		"SD":  "LAC",
		"STL": "LAR",
		"la":  "LAR",
		"KC":  "KC",
		" ne": "NE",
		"":    "",
	}

	for input, want := range cases {
		if got := Canonicalize(input); got != want {
			t.Fatalf("Canonicalize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestAreEquivalent(t *testing.T) {
	t.Parallel()

	if !AreEquivalent("WSH", "WAS") {
		t.Fatal("WSH and WAS should be equivalent")
	}
	if !AreEquivalent("JAC", "jax") {
		t.Fatal("JAC and jax should be equivalent")
	}
	if !AreEquivalent("OAK", "LV") {
		t.Fatal("OAK and LV should be equivalent")
	}
	if AreEquivalent("KC", "GB") {
		t.Fatal("KC and GB should not be equivalent")
	}
	if AreEquivalent("", "") {
		t.Fatal("empty codes are never equivalent")
	}
}

func TestAliasesOf(t *testing.T) {
	t.Parallel()

	aliases := AliasesOf("WAS")
	found := false
	for _, alias := range aliases {
		if alias == "WSH" {
			found = true
		}
	}
	if !found {
		t.Fatalf("AliasesOf(WAS) = %v, want WSH included", aliases)
	}

	if got := AliasesOf("KC"); got != nil {
		t.Fatalf("AliasesOf(KC) = %v, want nil", got)
	}
}
