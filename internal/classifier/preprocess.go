package classifier

import (
	"bytes"
	"image"
	"math"

	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// channels is the color depth of the scorer input tensor (RGB).
const channels = 3

// preprocess decodes an arbitrary-size color image, resizes it to the
// scorer's square input resolution, and scales each RGB channel to [-1, 1]
// with x/127.5 - 1.0. The tensor layout is row-major HWC.
func preprocess(data []byte, size int) ([]float32, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}

	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(resized, resized.Bounds(), src, src.Bounds(), draw.Src, nil)

	tensor := make([]float32, size*size*channels)
	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			offset := resized.PixOffset(x, y)
			for c := 0; c < channels; c++ {
				v := float64(resized.Pix[offset+c])
				tensor[i] = float32(v/127.5 - 1.0)
				i++
			}
		}
	}

	return tensor, nil
}

// sumsToOne reports whether probabilities sum to 1 within floating tolerance.
func sumsToOne(probs []float32) bool {
	var total float64
	for _, p := range probs {
		total += float64(p)
	}
	return math.Abs(total-1.0) < 1e-3
}
