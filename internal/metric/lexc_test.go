package metric

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

const sampleLexc = `! Kazakh nouns and verbs
Multichar_Symbols
%<n%>
%<v%>

LEXICON Root
Nouns ;
Verbs ;

LEXICON Nouns
cat:cat N ;
dog:dog N ;
dog:dog N ;    ! duplicate
mouse:mice N-PL ;
bird N ;

LEXICON Verbs
run:run V ;
cat:cat V ;

LEXICON Unused
zebra:zebra N ;

LEXICON N
# ;
`

func TestLexcCounter_Count(t *testing.T) {
	tests := []struct {
		name     string
		uniqueOn UniqueOn
		expected int
	}{
		{name: "LemmaContinuation", uniqueOn: UniqueLemmaContinuation, expected: 6},
		{name: "LemmaGloss", uniqueOn: UniqueLemmaGloss, expected: 5},
		{name: "LemmaComment", uniqueOn: UniqueLemmaComment, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &LexcCounter{UniqueOn: tt.uniqueOn}
			got, err := c.Count([]byte(sampleLexc))
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Count = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestLexcCounter_NoRoot(t *testing.T) {
	c := &LexcCounter{UniqueOn: UniqueLemmaContinuation}
	_, err := c.Count([]byte("LEXICON Nouns\ncat:cat N ;\n"))
	if !errors.Is(err, ErrNoRootLexicon) {
		t.Fatalf("expected ErrNoRootLexicon, got %v", err)
	}
	if !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("ErrNoRootLexicon should wrap ErrFormatMismatch")
	}
}

func TestLexcCounter_PointerCycle(t *testing.T) {
	content := "LEXICON Root\nA ;\nLEXICON A\nRoot ;\nx:x N ;\n"
	c := &LexcCounter{UniqueOn: UniqueLemmaContinuation}
	got, err := c.Count([]byte(content))
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if got != 1 {
		t.Errorf("Count = %d, expected 1", got)
	}
}

func TestCleanLexcLine(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "  cat:cat N ;  ! a comment", expected: "cat:cat N ;"},
		{input: "%<n%>", expected: "<n>"},
		{input: "! only a comment", expected: ""},
		{input: "a%:b:c N ;", expected: "a:b:c N ;"},
	}
	for _, tt := range tests {
		if got := cleanLexcLine(tt.input); got != tt.expected {
			t.Errorf("cleanLexcLine(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestContinuationKey_OrderInsensitive(t *testing.T) {
	if continuationKey("a", "N-PL") != continuationKey("a", "PL-N") {
		t.Errorf("continuation parts should be compared as a set")
	}
	if continuationKey("a", "N") == continuationKey("a", "V") {
		t.Errorf("different continuations must not collide")
	}
}

func TestRapidLexc_CountsDistinctStems(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "n")
		var b strings.Builder
		b.WriteString("LEXICON Root\nStems ;\n\nLEXICON Stems\n")

		distinct := map[string]bool{}
		for i := 0; i < n; i++ {
			lemma := rapid.StringMatching(`[a-z]{1,4}`).Draw(t, fmt.Sprintf("lemma%d", i))
			cont := rapid.SampledFrom([]string{"N", "V", "A", "N-PL", "PL-N"}).Draw(t, fmt.Sprintf("cont%d", i))
			fmt.Fprintf(&b, "%s:%s %s ;\n", lemma, lemma, cont)
			distinct[continuationKey(lemma, cont)] = true
		}

		c := &LexcCounter{UniqueOn: UniqueLemmaContinuation}
		once, err := c.Count([]byte(b.String()))
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if once != len(distinct) {
			t.Fatalf("Count = %d, expected %d", once, len(distinct))
		}
	})
}
