package coordinator

import (
	"hash/fnv"
	"math"
	"strings"

	"arinfer/pkg/types"
)

// maxDecodeTokens caps decoded output regardless of MaxTokens.
const maxDecodeTokens = 50

var vocabulary = []string{
	"the", "scene", "shows", "a", "person", "near", "window", "with", "soft",
	"light", "and", "table", "in", "front", "of", "them", "on", "street",
	"sign", "reads", "open", "door", "to", "left", "right", "car", "parked",
	"building", "tall", "green", "tree", "red", "cup", "coffee", "screen",
	"displays", "text", "map", "route", "ahead", "turn", "meters",
}

// Decode turns a hidden state into exactly min(MaxTokens, 50) words, or the
// empty string when MaxTokens is not positive. Equal inputs decode equally.
func Decode(hidden []float32, params types.Parameters) string {
	n := params.MaxTokens
	if n > maxDecodeTokens {
		n = maxDecodeTokens
	}
	if n <= 0 {
		return ""
	}
	seed := hiddenSeed(hidden)
	words := make([]string, n)
	for i := range words {
		seed = seed*1103515245 + 12345
		words[i] = vocabulary[(seed>>16)%uint32(len(vocabulary))]
	}
	return strings.Join(words, " ")
}

func hiddenSeed(hidden []float32) uint32 {
	h := fnv.New32a()
	var buf [4]byte
	for _, x := range hidden {
		b := math.Float32bits(x)
		buf[0], buf[1], buf[2], buf[3] = byte(b), byte(b>>8), byte(b>>16), byte(b>>24)
		_, _ = h.Write(buf[:])
	}
	return h.Sum32()
}

// TokensPerSecond is words over latency; zero when latency is zero.
func TokensPerSecond(words int, latencyMs int64) float64 {
	if latencyMs <= 0 {
		return 0
	}
	return float64(words) / (float64(latencyMs) / 1000)
}

// outputTokens counts decoded words; only text outputs carry tokens.
func outputTokens(out types.Output) int {
	if out.Kind != types.OutputText {
		return 0
	}
	return len(strings.Fields(out.Text))
}
