package coordinator

import (
	"math"

	"arinfer/pkg/types"
)

// maxEmbedUnits caps how many input units contribute to the hidden state.
const maxEmbedUnits = 2048

// InitialHiddenState derives a deterministic hidden vector from in with
// width values per input unit. Units are text bytes, token ids, image bytes or
// quantised audio samples; multimodal inputs concatenate their parts.
func InitialHiddenState(in types.Input, width int) []float32 {
	if width <= 0 {
		width = defaultEmbeddingWidth
	}
	units := inputUnits(in)
	if len(units) > maxEmbedUnits {
		units = units[:maxEmbedUnits]
	}
	hidden := make([]float32, len(units)*width)
	for j, u := range units {
		for k := 0; k < width; k++ {
			hidden[j*width+k] = float32((u+uint32(k)*31)%256) / 255
		}
	}
	return hidden
}

func inputUnits(in types.Input) []uint32 {
	var units []uint32
	for _, b := range []byte(in.Text) {
		units = append(units, uint32(b))
	}
	for _, t := range in.Tokens {
		units = append(units, uint32(t))
	}
	for _, b := range in.Image {
		units = append(units, uint32(b))
	}
	for _, s := range in.Audio {
		units = append(units, uint32(math.Round(float64(clamp(s))*127)+128))
	}
	return units
}

func clamp(s float32) float32 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	case s != s: // NaN
		return 0
	}
	return s
}
