package retrieval

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text, splits it into word tokens and drops English
// stopwords and punctuation. Contractions split the way Penn Treebank
// tokenizers do ("don't" -> "do", "n't"), so the negation fragment is kept.
func Tokenize(text string) []string {
	var tokens []string
	for _, word := range splitWords(strings.ToLower(text)) {
		for _, tok := range splitContraction(word) {
			if tok == "" || stopwords[tok] {
				continue
			}
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// splitWords returns runs of letters, digits and inner apostrophes.
// Everything else (punctuation, typographic quotes, spaces) separates words.
func splitWords(s string) []string {
	var words []string
	var cur []rune
	runes := []rune(s)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.Trim(string(cur), "'"))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur = append(cur, r)
		case (r == '\'' || r == '’') && len(cur) > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			cur = append(cur, '\'')
		default:
			flush()
		}
	}
	flush()
	return words
}

func splitContraction(word string) []string {
	if stem, ok := strings.CutSuffix(word, "n't"); ok && stem != "" {
		return []string{stem, "n't"}
	}
	for _, suffix := range []string{"'s", "'re", "'ve", "'ll", "'d", "'m"} {
		if stem, ok := strings.CutSuffix(word, suffix); ok && stem != "" {
			return []string{stem, suffix}
		}
	}
	return []string{word}
}

// stopwords is the NLTK English stopword list.
var stopwords = func() map[string]bool {
	words := strings.Fields(`
i me my myself we our ours ourselves you you're you've you'll you'd your yours
yourself yourselves he him his himself she she's her hers herself it it's its
itself they them their theirs themselves what which who whom this that that'll
these those am is are was were be been being have has had having do does did
doing a an the and but if or because as until while of at by for with about
against between into through during before after above below to from up down in
out on off over under again further then once here there when where why how all
any both each few more most other some such no nor not only own same so than too
very s t can will just don don't should should've now d ll m o re ve y ain aren
aren't couldn couldn't didn didn't doesn doesn't hadn hadn't hasn hasn't haven
haven't isn isn't ma mightn mightn't mustn mustn't needn needn't shan shan't
shouldn shouldn't wasn wasn't weren weren't won won't wouldn wouldn't`)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()
