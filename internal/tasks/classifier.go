package tasks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/shared"
)

// Classifier flags new items for highlighting.
//
// A name containing the brand token as a whole word (case-insensitive) is [models.FlagBrand]; otherwise an id
// without the standard prefix is [models.FlagNonStandard]; anything else is [models.FlagDefault].
type Classifier struct {
	brand  *regexp.Regexp
	prefix string
}

// NewClassifier compiles the brand matcher. Word boundaries are Unicode-aware, so Cyrillic letters next to the
// token keep it from matching.
func NewClassifier(cfg shared.ClassifierConfig) (*Classifier, error) {
	c := &Classifier{prefix: cfg.StandardPrefix}
	token := strings.TrimSpace(cfg.BrandToken)
	if token == "" {
		return c, nil
	}
	re, err := regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(token) + `(?:[^\p{L}\p{N}_]|$)`)
	if err != nil {
		return nil, fmt.Errorf("%w: brand token %q: %v", shared.ErrInvalidConfig, token, err)
	}
	c.brand = re
	return c, nil
}

// Classify returns the flag for an item.
func (c *Classifier) Classify(name, itemID string) models.Flag {
	if c.brand != nil && c.brand.MatchString(name) {
		return models.FlagBrand
	}
	if c.prefix != "" && !strings.HasPrefix(itemID, c.prefix) {
		return models.FlagNonStandard
	}
	return models.FlagDefault
}

// Standard reports whether itemID carries the standard prefix.
func (c *Classifier) Standard(itemID string) bool {
	return c.prefix != "" && strings.HasPrefix(itemID, c.prefix)
}
