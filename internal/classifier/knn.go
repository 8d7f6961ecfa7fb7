package classifier

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/facemark/facemark-api/internal/vision"
)

// Prediction is the classifier's answer for one embedding.
type Prediction struct {
	Label      string
	Confidence float64
}

// Model is a distance-weighted k nearest neighbour classifier over face
// embeddings. Confidence is the weight share of the winning label among
// the k nearest samples, so a unanimous neighbourhood scores near 1.
type Model struct {
	Neighbors int
	Labels    []string
	Vectors   [][]float64
}

// NewModel creates an empty model with the given neighbourhood size.
func NewModel(neighbors int) *Model {
	if neighbors <= 0 {
		neighbors = 5
	}
	return &Model{Neighbors: neighbors}
}

// Fit stores the training samples. Labels and vectors are parallel.
func (m *Model) Fit(labels []string, vectors []vision.Embedding) error {
	if len(labels) != len(vectors) {
		return fmt.Errorf("labels and vectors differ in length: %d vs %d", len(labels), len(vectors))
	}
	if len(labels) == 0 {
		return fmt.Errorf("cannot fit on an empty sample set")
	}
	m.Labels = make([]string, len(labels))
	copy(m.Labels, labels)
	m.Vectors = make([][]float64, len(vectors))
	for i, vec := range vectors {
		if len(vec) != vision.EmbeddingSize {
			return fmt.Errorf("sample %d has dimension %d, want %d", i, len(vec), vision.EmbeddingSize)
		}
		m.Vectors[i] = toFloat64(vec)
	}
	return nil
}

// Predict returns the best matching label with its confidence.
func (m *Model) Predict(vec vision.Embedding) (Prediction, error) {
	if len(m.Vectors) == 0 {
		return Prediction{}, fmt.Errorf("model has no training samples")
	}
	if len(vec) != vision.EmbeddingSize {
		return Prediction{}, fmt.Errorf("embedding has dimension %d, want %d", len(vec), vision.EmbeddingSize)
	}
	query := toFloat64(vec)

	type scored struct {
		index    int
		distance float64
	}
	neighbours := make([]scored, len(m.Vectors))
	for i, sample := range m.Vectors {
		neighbours[i] = scored{index: i, distance: floats.Distance(query, sample, 2)}
	}
	sort.Slice(neighbours, func(a, b int) bool {
		return neighbours[a].distance < neighbours[b].distance
	})

	k := m.Neighbors
	if k > len(neighbours) {
		k = len(neighbours)
	}

	weights := make(map[string]float64)
	var total float64
	for _, n := range neighbours[:k] {
		// Inverse distance weighting; an exact match dominates the vote.
		w := 1.0 / (n.distance + 1e-9)
		if math.IsInf(w, 1) {
			w = math.MaxFloat64 / float64(k)
		}
		weights[m.Labels[n.index]] += w
		total += w
	}

	var best Prediction
	for label, weight := range weights {
		share := weight / total
		if share > best.Confidence || (share == best.Confidence && label < best.Label) {
			best = Prediction{Label: label, Confidence: share}
		}
	}
	return best, nil
}

// Classes returns the distinct labels in the training set, sorted.
func (m *Model) Classes() []string {
	seen := make(map[string]struct{})
	var classes []string
	for _, label := range m.Labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		classes = append(classes, label)
	}
	sort.Strings(classes)
	return classes
}

func toFloat64(vec vision.Embedding) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
