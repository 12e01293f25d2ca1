package metric

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// UniqueOn selects what makes two lexc entries the same stem.
type UniqueOn string

const (
	UniqueLemmaContinuation UniqueOn = "lemma+continuationLexicon"
	UniqueLemmaGloss        UniqueOn = "lemma+gloss"
	UniqueLemmaComment      UniqueOn = "lemma+comment"
)

// Valid reports whether u is a supported criterion.
func (u UniqueOn) Valid() bool {
	switch u {
	case UniqueLemmaContinuation, UniqueLemmaGloss, UniqueLemmaComment:
		return true
	}
	return false
}

const rootLexicon = "Root"

var (
	lexcEscape     = regexp.MustCompile(`%(.)`)
	lexcComment    = regexp.MustCompile(`!.*$`)
	lexcWhitespace = regexp.MustCompile(`\s+`)
	lexcEntry      = regexp.MustCompile(`^(.+?):([^;]+);(?:\s+!\s+(.+))?`)
)

// LexcCounter counts unique stems in an HFST lexc dictionary.
// Only entries of lexicons reachable from Root through continuation
// pointers are counted.
type LexcCounter struct {
	UniqueOn UniqueOn
	Logger   *zap.Logger
}

type lexicon struct {
	pointers []string
	entries  map[string]struct{}
}

// Count returns the number of unique stems.
func (c *LexcCounter) Count(content []byte) (int, error) {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	lexicons := map[string]*lexicon{}
	get := func(name string) *lexicon {
		lex, ok := lexicons[name]
		if !ok {
			lex = &lexicon{entries: map[string]struct{}{}}
			lexicons[name] = lex
		}
		return lex
	}

	current := ""
	for i, raw := range strings.Split(string(content), "\n") {
		line := cleanLexcLine(raw)
		switch {
		case strings.HasPrefix(line, "LEXICON"):
			fields := strings.Fields(line)
			if len(fields) < 2 {
				log.Debug("failed to parse", zap.Int("line", i+1), zap.String("text", line))
				continue
			}
			current = fields[1]
			get(current)
		case line == "" || current == "" || strings.HasPrefix(line, "!"):
			continue
		default:
			if !c.parseLine(get(current), line) {
				log.Debug("failed to parse", zap.Int("line", i+1), zap.String("text", line))
			}
		}
	}

	if _, ok := lexicons[rootLexicon]; !ok {
		return 0, ErrNoRootLexicon
	}

	reachable := map[string]bool{}
	var walk func(name string)
	walk = func(name string) {
		lex, ok := lexicons[name]
		if !ok {
			return
		}
		for _, p := range lex.pointers {
			if reachable[p] {
				continue
			}
			reachable[p] = true
			walk(p)
		}
	}
	walk(rootLexicon)

	stems := map[string]struct{}{}
	for name := range reachable {
		lex, ok := lexicons[name]
		if !ok {
			continue
		}
		log.Debug("counting lexicon", zap.String("lexicon", name), zap.Int("entries", len(lex.entries)))
		for key := range lex.entries {
			stems[key] = struct{}{}
		}
	}
	return len(stems), nil
}

// parseLine records an entry or a continuation pointer. It reports false for
// lines it cannot make sense of.
func (c *LexcCounter) parseLine(lex *lexicon, line string) bool {
	gaps := len(lexcWhitespace.FindAllStringIndex(line, -1))

	switch {
	case gaps >= 2 && strings.Contains(line, ":"):
		m := lexcEntry.FindStringSubmatch(line)
		if m == nil {
			return false
		}
		cont := strings.Fields(m[2])
		if len(cont) == 0 {
			return false
		}
		lemma := strings.TrimSpace(m[1])
		if c.UniqueOn == UniqueLemmaContinuation {
			lex.entries[continuationKey(lemma, cont[len(cont)-1])] = struct{}{}
		} else {
			lex.entries[glossKey(lemma, strings.TrimSpace(m[3]))] = struct{}{}
		}
		return true

	case gaps >= 2:
		// Without a surface form there is no gloss to key on, so both
		// criteria use the continuation lexicon.
		head := strings.Fields(strings.SplitN(line, ";", 2)[0])
		if len(head) < 2 {
			return false
		}
		lex.entries[continuationKey(head[0], head[1])] = struct{}{}
		return true

	case gaps == 1:
		pointer := strings.TrimSpace(strings.SplitN(line, ";", 2)[0])
		if pointer == "" || strings.ContainsAny(pointer, " \t") {
			return false
		}
		lex.pointers = append(lex.pointers, pointer)
		return true
	}
	return false
}

func cleanLexcLine(line string) string {
	line = lexcEscape.ReplaceAllString(strings.TrimSpace(line), "$1")
	return strings.TrimSpace(lexcComment.ReplaceAllString(line, ""))
}

// continuationKey keys on the lemma and the set of '-'-joined continuation parts.
func continuationKey(lemma, continuation string) string {
	parts := strings.Split(continuation, "-")
	sort.Strings(parts)
	uniq := parts[:0]
	for i, p := range parts {
		if i > 0 && p == parts[i-1] {
			continue
		}
		uniq = append(uniq, p)
	}
	return "c\x00" + lemma + "\x00" + strings.Join(uniq, "\x00")
}

func glossKey(lemma, gloss string) string {
	return "g\x00" + lemma + "\x00" + gloss
}
