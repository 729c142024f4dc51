// Package retrieval ranks text segments against a query with Okapi BM25.
package retrieval

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// BM25 parameters.
const (
	K1      = 1.5
	B       = 0.75
	Epsilon = 0.25 // floor for negative idf values, as a fraction of the mean idf
)

// ErrEmptyCorpus is returned by Build when there is nothing to index.
var ErrEmptyCorpus = errors.New("retrieval: empty corpus")

// Match is one ranked segment.
type Match struct {
	ID    int // index into the corpus passed to Build
	Score float64
}

// Index is an immutable BM25 index over a fixed corpus. Safe for concurrent
// queries.
type Index struct {
	docFreqs []map[string]int
	docLens  []int
	avgDL    float64
	idf      map[string]float64
}

// Build tokenizes every segment and computes the corpus statistics.
// Tokenization runs in parallel; ctx cancels it.
func Build(ctx context.Context, segments []string) (*Index, error) {
	if len(segments) == 0 {
		return nil, ErrEmptyCorpus
	}

	tokenized := make([][]string, len(segments))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, seg := range segments {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tokenized[i] = Tokenize(seg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return newIndex(tokenized), nil
}

func newIndex(corpus [][]string) *Index {
	idx := &Index{
		docFreqs: make([]map[string]int, len(corpus)),
		docLens:  make([]int, len(corpus)),
		idf:      make(map[string]float64),
	}

	df := make(map[string]int)
	total := 0
	for i, doc := range corpus {
		freqs := make(map[string]int)
		for _, tok := range doc {
			freqs[tok]++
		}
		idx.docFreqs[i] = freqs
		idx.docLens[i] = len(doc)
		total += len(doc)
		for tok := range freqs {
			df[tok]++
		}
	}
	idx.avgDL = float64(total) / float64(len(corpus))

	// Terms present in more than half of the documents get a negative idf;
	// those are replaced with Epsilon times the mean idf, which is itself
	// negative when common terms dominate.
	n := float64(len(corpus))
	var idfSum float64
	var negative []string
	for tok, freq := range df {
		v := math.Log(n-float64(freq)+0.5) - math.Log(float64(freq)+0.5)
		idx.idf[tok] = v
		idfSum += v
		if v < 0 {
			negative = append(negative, tok)
		}
	}
	if len(df) > 0 {
		floor := Epsilon * idfSum / float64(len(df))
		for _, tok := range negative {
			idx.idf[tok] = floor
		}
	}
	return idx
}

// Len returns the number of indexed segments.
func (x *Index) Len() int { return len(x.docLens) }

// Scores returns the BM25 score of every segment for the tokenized query.
func (x *Index) Scores(query []string) []float64 {
	scores := make([]float64, len(x.docLens))
	for _, q := range query {
		idf := x.idf[q]
		if idf == 0 {
			continue
		}
		for i, freqs := range x.docFreqs {
			tf := float64(freqs[q])
			if tf == 0 {
				continue
			}
			norm := K1 * (1 - B + B*float64(x.docLens[i])/x.avgDL)
			scores[i] += idf * (tf * (K1 + 1)) / (tf + norm)
		}
	}
	return scores
}

// Query tokenizes text and returns up to topN segments whose score is
// strictly greater than minScore, best first. Ties keep corpus order.
func (x *Index) Query(text string, topN int, minScore float64) []Match {
	if topN <= 0 {
		return nil
	}
	scores := x.Scores(Tokenize(text))

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	if len(order) > topN {
		order = order[:topN]
	}

	matches := make([]Match, 0, len(order))
	for _, i := range order {
		if scores[i] > minScore {
			matches = append(matches, Match{ID: i, Score: scores[i]})
		}
	}
	return matches
}
