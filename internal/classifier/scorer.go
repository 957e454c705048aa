package classifier

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Scorer maps a preprocessed image tensor to a probability vector over the
// label set. Implementations must be safe for concurrent use after load:
// scoring mutates no state.
type Scorer interface {
	// InputSize returns the square input resolution the scorer expects.
	InputSize() int
	// Labels returns the closed label set in index order.
	Labels() []string
	// Score returns a probability vector aligned with Labels, summing to 1.
	Score(input []float32) ([]float32, error)
}

// linearScorer is a softmax classifier over flattened image tensors, loaded
// from an exported weights file.
type linearScorer struct {
	inputSize int
	labels    []string
	weights   [][]float32
	bias      []float32
}

const (
	scorerMagic   = "RGSM"
	scorerVersion = 1
)

// LoadScorer reads an exported weights file. The format is little-endian:
// 4-byte magic, uint32 version, uint32 input size, uint32 label count,
// length-prefixed label strings, bias vector, then one weight row per label.
func LoadScorer(path string) (Scorer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic[:]) != scorerMagic {
		return nil, fmt.Errorf("not a scorer weights file")
	}

	var version, inputSize, labelCount uint32
	for _, v := range []*uint32{&version, &inputSize, &labelCount} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
	}
	if version != scorerVersion {
		return nil, fmt.Errorf("unsupported weights version %d", version)
	}
	if inputSize == 0 || labelCount == 0 {
		return nil, fmt.Errorf("invalid weights header")
	}

	labels := make([]string, labelCount)
	for i := range labels {
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("read label length: %w", err)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read label: %w", err)
		}
		labels[i] = string(buf)
	}

	bias := make([]float32, labelCount)
	if err := binary.Read(r, binary.LittleEndian, bias); err != nil {
		return nil, fmt.Errorf("read bias: %w", err)
	}

	dim := int(inputSize) * int(inputSize) * channels
	weights := make([][]float32, labelCount)
	for i := range weights {
		weights[i] = make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, weights[i]); err != nil {
			return nil, fmt.Errorf("read weights row %d: %w", i, err)
		}
	}

	return &linearScorer{
		inputSize: int(inputSize),
		labels:    labels,
		weights:   weights,
		bias:      bias,
	}, nil
}

func (s *linearScorer) InputSize() int {
	return s.inputSize
}

func (s *linearScorer) Labels() []string {
	return s.labels
}

func (s *linearScorer) Score(input []float32) ([]float32, error) {
	dim := s.inputSize * s.inputSize * channels
	if len(input) != dim {
		return nil, fmt.Errorf("input length %d, want %d", len(input), dim)
	}

	logits := make([]float64, len(s.labels))
	for i, row := range s.weights {
		sum := float64(s.bias[i])
		for j, w := range row {
			sum += float64(w) * float64(input[j])
		}
		logits[i] = sum
	}

	return softmax(logits), nil
}

// softmax subtracts the max logit before exponentiation for numeric
// stability; the result sums to 1 within floating tolerance.
func softmax(logits []float64) []float32 {
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	exps := make([]float64, len(logits))
	var total float64
	for i, l := range logits {
		exps[i] = math.Exp(l - maxLogit)
		total += exps[i]
	}

	probs := make([]float32, len(logits))
	for i, e := range exps {
		probs[i] = float32(e / total)
	}
	return probs
}
