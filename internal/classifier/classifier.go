package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

// BadLabel is the class label the scorer reads the phishing probability from.
// A model artifact that does not carry it is unusable.
const BadLabel = "bad"

// Model is a trained linear text classifier loaded from a JSON artifact.
// The artifact is produced by an external training pipeline; this package
// only evaluates it. A Model is read-only after Load and safe for
// concurrent use.
type Model struct {
	Classes      []string       `json:"classes"`
	NgramMin     int            `json:"ngram_min"`
	NgramMax     int            `json:"ngram_max"`
	Vocabulary   map[string]int `json:"vocabulary"`
	Coefficients [][]float64    `json:"coefficients"`
	Intercepts   []float64      `json:"intercepts"`

	badIndex int
}

// Load reads and validates a model artifact. Any problem here is a fatal
// configuration error: the service must not start without a usable model.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}

	return &m, nil
}

// validate checks the artifact shape and resolves the bad-class index once,
// so per-request scoring never has to search the class list.
func (m *Model) validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("no classes defined")
	}
	if len(m.Vocabulary) == 0 {
		return fmt.Errorf("empty vocabulary")
	}
	if m.NgramMin < 1 || m.NgramMax < m.NgramMin {
		return fmt.Errorf("invalid n-gram range [%d, %d]", m.NgramMin, m.NgramMax)
	}
	if len(m.Coefficients) != len(m.Classes) {
		return fmt.Errorf("coefficient rows (%d) do not match classes (%d)", len(m.Coefficients), len(m.Classes))
	}
	if len(m.Intercepts) != len(m.Classes) {
		return fmt.Errorf("intercepts (%d) do not match classes (%d)", len(m.Intercepts), len(m.Classes))
	}
	for i, row := range m.Coefficients {
		if len(row) != len(m.Vocabulary) {
			return fmt.Errorf("coefficient row %d has %d features, vocabulary has %d", i, len(row), len(m.Vocabulary))
		}
	}

	m.badIndex = -1
	for i, class := range m.Classes {
		if class == BadLabel {
			m.badIndex = i
			break
		}
	}
	if m.badIndex == -1 {
		return fmt.Errorf("model does not expose the %q class", BadLabel)
	}

	return nil
}

// Transform converts text into the term-frequency feature vector the model
// was trained on: counts of vocabulary terms among the lowercased character
// n-grams of the input.
func (m *Model) Transform(text string) []float64 {
	vec := make([]float64, len(m.Vocabulary))

	text = strings.ToLower(text)
	runes := []rune(text)

	for n := m.NgramMin; n <= m.NgramMax; n++ {
		for i := 0; i+n <= len(runes); i++ {
			if idx, ok := m.Vocabulary[string(runes[i:i+n])]; ok {
				vec[idx]++
			}
		}
	}

	return vec
}

// Probabilities returns the model's probability per class label for the
// given text (softmax over the per-class linear scores).
func (m *Model) Probabilities(text string) map[string]float64 {
	vec := m.Transform(text)

	scores := make([]float64, len(m.Classes))
	for i, row := range m.Coefficients {
		score := m.Intercepts[i]
		for j, v := range vec {
			if v != 0 {
				score += row[j] * v
			}
		}
		scores[i] = score
	}

	// Softmax with max subtraction to keep the exponentials bounded.
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}

	var sum float64
	exps := make([]float64, len(scores))
	for i, s := range scores {
		exps[i] = math.Exp(s - maxScore)
		sum += exps[i]
	}

	probs := make(map[string]float64, len(m.Classes))
	for i, class := range m.Classes {
		probs[class] = exps[i] / sum
	}

	return probs
}

// BadProbability returns the probability assigned to the phishing class,
// in [0, 1].
func (m *Model) BadProbability(text string) float64 {
	return m.Probabilities(text)[m.Classes[m.badIndex]]
}
