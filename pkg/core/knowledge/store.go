package knowledge

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"farmer_assist/pkg/core/utils"
)

//go:embed catalogue.hjson
var defaultCatalogue []byte

// LoadCatalogue parses an hjson array of documents and validates each one.
func LoadCatalogue(data []byte) ([]Document, error) {
	var docs []Document
	if err := utils.ParseHJSONToStruct(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse scheme catalogue: %w", err)
	}
	seen := make(map[string]bool, len(docs))
	for i := range docs {
		docs[i].Content = strings.TrimSpace(docs[i].Content)
		if err := docs[i].Validate(); err != nil {
			return nil, err
		}
		if seen[docs[i].ID] {
			return nil, fmt.Errorf("duplicate scheme document %s", docs[i].ID)
		}
		seen[docs[i].ID] = true
	}
	return docs, nil
}

// DefaultDocuments returns the built-in catalogue.
func DefaultDocuments() []Document {
	docs, err := LoadCatalogue(defaultCatalogue)
	if err != nil {
		panic(err)
	}
	return docs
}

// MemoryStore implements Store over an ordered slice of documents.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []Document
	byID map[string]int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store seeded with docs, keeping their order.
func NewMemoryStore(docs ...Document) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]int)}
	for _, d := range docs {
		_ = s.Add(d)
	}
	return s
}

// Add stores a document; ids must be unique.
func (s *MemoryStore) Add(d Document) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[d.ID]; exists {
		return fmt.Errorf("document '%s' already exists", d.ID)
	}
	s.byID[d.ID] = len(s.docs)
	s.docs = append(s.docs, d)
	return nil
}

func (s *MemoryStore) Get(id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return Document{}, fmt.Errorf("document '%s' not found", id)
	}
	return s.docs[i], nil
}

func (s *MemoryStore) List() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Document(nil), s.docs...)
}

// Search ranks the documents usable from state/district by how many query
// terms they share: a title hit weighs 3, a tag hit 2 and a content hit 1.
// Documents with no overlap stay in the result after the ranked ones so the
// model still sees the whole catalogue. Ties keep catalogue order.
func (s *MemoryStore) Search(query, state, district string, limit int) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := queryTerms(query)
	type scored struct {
		doc   Document
		score int
	}
	var candidates []scored
	for _, d := range s.docs {
		if !d.AppliesTo(state, district) {
			continue
		}
		candidates = append(candidates, scored{doc: d, score: score(d, terms)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	results := make([]Document, 0, limit)
	for _, c := range candidates[:limit] {
		results = append(results, c.doc)
	}
	return results
}

func score(d Document, terms []string) int {
	title := strings.ToLower(d.Title)
	content := strings.ToLower(d.Content)
	total := 0
	for _, term := range terms {
		if strings.Contains(title, term) {
			total += 3
		}
		for _, tag := range d.Tags {
			if strings.Contains(strings.ToLower(tag), term) {
				total += 2
				break
			}
		}
		if strings.Contains(content, term) {
			total++
		}
	}
	return total
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "what": true, "how": true, "can": true,
	"get": true, "about": true, "scheme": true, "schemes": true, "yojana": true,
	"with": true, "which": true, "there": true, "any": true, "are": true, "tell": true,
}

// queryTerms lowercases and splits the query, dropping short and common words.
// Non-Latin scripts are kept whole since they are not stop words.
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsMark(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 3 || stopWords[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
