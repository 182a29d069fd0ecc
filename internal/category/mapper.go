// Package category maps raw dataset categories onto the simplified taxonomy and backfills the gaps with a
// zero-shot classifier.
package category

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

// DefaultMapping returns the built-in raw → simplified category table. The result is a fresh map.
func DefaultMapping() map[string]string {
	return map[string]string{
		"Fiction":                   domain.CategoryFiction,
		"Juvenile Fiction":          domain.CategoryChildrensFiction,
		"Biography & Autobiography": domain.CategoryNonfiction,
		"History":                   domain.CategoryNonfiction,
		"Literary Criticism":        domain.CategoryNonfiction,
		"Philosophy":                domain.CategoryNonfiction,
		"Religion":                  domain.CategoryNonfiction,
		"Comics & Graphic Novels":   domain.CategoryFiction,
		"Drama":                     domain.CategoryFiction,
		"Juvenile Nonfiction":       domain.CategoryChildrensNonfiction,
		"Science":                   domain.CategoryNonfiction,
		"Poetry":                    domain.CategoryFiction,
	}
}

// Mapper is an immutable lookup table. Keys match exactly, including case.
type Mapper struct {
	table map[string]string
}

// NewMapper copies table. Every mapped value must be one of domain.TargetCategories.
func NewMapper(table map[string]string) (*Mapper, error) {
	targets := domain.TargetCategories()
	for raw, mapped := range table {
		if !slices.Contains(targets, mapped) {
			return nil, domainerrors.Configurationf("category %q maps to %q, which is not in the taxonomy", raw, mapped)
		}
	}
	return &Mapper{table: maps.Clone(table)}, nil
}

// NewDefaultMapper returns a Mapper over DefaultMapping.
func NewDefaultMapper() *Mapper {
	return &Mapper{table: DefaultMapping()}
}

// Map returns the simplified category for raw, or ("", false) when the table has no entry.
func (m *Mapper) Map(raw string) (string, bool) {
	mapped, ok := m.table[raw]
	return mapped, ok
}

// Len returns the number of table entries.
func (m *Mapper) Len() int {
	return len(m.table)
}

// Apply returns a copy of books with SimpleCategory set from the table. Unmapped rows get the missing value.
func (m *Mapper) Apply(books []domain.Book) []domain.Book {
	out := domain.CloneBooks(books)
	for i := range out {
		mapped, _ := m.Map(out[i].Categories)
		out[i].SimpleCategory = mapped
	}
	return out
}

// mappingFile is the YAML shape accepted by LoadMapping:
//
//	mapping:
//	  Fiction: Fiction
//	  Juvenile Fiction: Children's Fiction
type mappingFile struct {
	Mapping map[string]string `yaml:"mapping"`
}

// LoadMapping reads a replacement table from a YAML file.
func LoadMapping(path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category mapping: %w", err)
	}

	var f mappingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeConfiguration, "parse category mapping %s", path)
	}
	if len(f.Mapping) == 0 {
		return nil, domainerrors.Configurationf("category mapping %s has no entries", path)
	}
	return NewMapper(f.Mapping)
}
