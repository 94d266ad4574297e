package intent

import (
	"reflect"
	"testing"
)

func TestKeywords_FiltersStopWordsAndShortTokens(t *testing.T) {
	got := Keywords("What are the solar panel producers in Germany?")
	want := []string{"solar", "panel", "producers", "germany"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords() = %v, want %v", got, want)
	}
}

func TestKeywords_LowercasesAndDeduplicates(t *testing.T) {
	got := Keywords("Wind WIND wind turbines")
	want := []string{"wind", "turbines"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords() = %v, want %v", got, want)
	}
}

func TestKeywords_SplitsOnPunctuation(t *testing.T) {
	got := Keywords("solar-panels, gas/oil; biofuel!")
	want := []string{"solar", "panels", "gas", "oil", "biofuel"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords() = %v, want %v", got, want)
	}
}

func TestKeywords_AllFilteredYieldsEmpty(t *testing.T) {
	cases := []string{
		"",
		"what is the",
		"a an of me",
		"is it? me!!",
	}
	for _, input := range cases {
		if got := Keywords(input); len(got) != 0 {
			t.Errorf("Keywords(%q) = %v, want empty", input, got)
		}
	}
}

func TestKeywords_LengthIsMeasuredInRunes(t *testing.T) {
	// Two-rune tokens are dropped even when they span more than two bytes.
	if got := Keywords("öl"); len(got) != 0 {
		t.Errorf("Keywords(%q) = %v, want empty", "öl", got)
	}

	got := Keywords("åländska vindkraftverk öl")
	want := []string{"åländska", "vindkraftverk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords() = %v, want %v", got, want)
	}
}

func TestKeywords_PreservesFirstSeenOrder(t *testing.T) {
	got := Keywords("hydro geothermal hydro nuclear geothermal")
	want := []string{"hydro", "geothermal", "nuclear"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords() = %v, want %v", got, want)
	}
}
