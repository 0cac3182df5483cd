package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
)

// Hashing is an offline embedder that hashes lowercase word tokens into a
// fixed number of buckets. Weights are non-negative, so the cosine of any
// two vectors is in [0, 1] and texts sharing a word score above zero.
type Hashing struct {
	dims int
}

func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Hashing{dims: dims}
}

func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, goerr.Wrap(ErrEmptyInput, "no words to embed", goerr.V("text", text))
	}

	vec := make([]float32, h.dims)
	for _, token := range tokens {
		hash := fnv.New32a()
		hash.Write([]byte(token))
		vec[hash.Sum32()%uint32(h.dims)] += 1
	}

	return normalize(vec), nil
}

func (h *Hashing) Dimensions() int {
	return h.dims
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize converts vec to a unit vector. A zero vector is returned as is.
func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}

	norm = math.Sqrt(norm)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or zero norm yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
