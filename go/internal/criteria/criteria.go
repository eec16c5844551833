// Package criteria defines the fixed, ordered table of scoring dimensions
// used by every room. The table is immutable for the lifetime of the
// process and its weights must sum to 1.0.
package criteria

import (
	"fmt"
	"math"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// WeightTolerance is the allowed floating-point drift on the weight sum.
const WeightTolerance = 1e-9

var validate = validator.New()

// Criterion is one weighted scoring dimension.
type Criterion struct {
	Key         string  `yaml:"key" json:"key" validate:"required"`
	DisplayName string  `yaml:"display_name" json:"displayName" validate:"required"`
	Weight      float64 `yaml:"weight" json:"weight" validate:"gt=0,lte=1"`
}

// Table is an ordered list of criteria. Order is significant: aggregation
// iterates the table in order so floating summation is stable.
type Table []Criterion

// Default returns the built-in hackathon scoring table.
func Default() Table {
	return Table{
		{Key: "problemFit", DisplayName: "Problem Fit", Weight: 0.30},
		{Key: "aiLeverage", DisplayName: "AI Leverage", Weight: 0.25},
		{Key: "creativity", DisplayName: "Creativity", Weight: 0.20},
		{Key: "execution", DisplayName: "Execution", Weight: 0.15},
		{Key: "pitch", DisplayName: "Pitch", Weight: 0.10},
	}
}

// Load reads a criteria table from a YAML file and validates it.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria file: %w", err)
	}

	var doc struct {
		Criteria Table `yaml:"criteria"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse criteria file: %w", err)
	}

	if err := doc.Criteria.Validate(); err != nil {
		return nil, err
	}
	return doc.Criteria, nil
}

// Validate checks structural validity of every criterion, key uniqueness,
// and that weights sum to 1.0 within WeightTolerance.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("criteria table is empty")
	}

	seen := make(map[string]bool, len(t))
	sum := 0.0
	for i, c := range t {
		if err := validate.Struct(c); err != nil {
			return fmt.Errorf("criterion %d (%s) invalid: %w", i, c.Key, err)
		}
		if seen[c.Key] {
			return fmt.Errorf("duplicate criterion key %q", c.Key)
		}
		seen[c.Key] = true
		sum += c.Weight
	}

	if math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("criteria weights sum to %v, want 1.0", sum)
	}
	return nil
}

// Keys returns the criterion keys in table order.
func (t Table) Keys() []string {
	keys := make([]string, len(t))
	for i, c := range t {
		keys[i] = c.Key
	}
	return keys
}

// Weight returns the weight for a key, or false if the key is not in the table.
func (t Table) Weight(key string) (float64, bool) {
	for _, c := range t {
		if c.Key == key {
			return c.Weight, true
		}
	}
	return 0, false
}
