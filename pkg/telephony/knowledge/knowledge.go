// Package knowledge retrieves business facts (hours, policies, products,
// FAQs) relevant to a call's objective for injection into the LLM system
// prompt. Grounded on original_source/knowledge_base.py's search_documents
// and get_knowledge_for_prompt, reduced to the single-process, in-memory
// keyword scorer SPEC_FULL.md calls for: no vector store, no persistence.
package knowledge

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultCharBudget bounds how much retrieved text gets folded into a
// prompt, matching knowledge_base.py's max_tokens=2000 at its own rough
// 4-chars-per-token estimate.
const DefaultCharBudget = 8000

// exactPhraseBonus is added to a document's score when the query appears in
// it verbatim, same weight as search_documents' "matches += 5".
const exactPhraseBonus = 5

// Document is one piece of retrievable knowledge.
type Document struct {
	ID      string
	Title   string
	Content string
}

// Retriever returns formatted knowledge text relevant to query, truncated to
// fit within budgetChars. Implementations report "" when nothing matches.
type Retriever interface {
	Retrieve(query string, budgetChars int) string
}

// Store is an in-memory Retriever: one flat pool of documents scored by
// word overlap plus an exact-phrase bonus, same ranking as
// knowledge_base.py's search_documents.
type Store struct {
	mu   sync.Mutex
	docs []Document
}

// NewStore builds an empty Store.
func NewStore() *Store { return &Store{} }

// AddDocument adds doc to the pool. IDs aren't deduplicated; callers own
// uniqueness if they care.
func (s *Store) AddDocument(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
}

type scoredDoc struct {
	Document
	score int
}

// Retrieve scores every document against query (word overlap over title+
// content, plus exactPhraseBonus for a verbatim substring match), and
// returns a "RELEVANT KNOWLEDGE:" block of the highest-scoring matches,
// truncating the lowest-scoring included match if the budget runs out
// mid-document, same shape as get_knowledge_for_prompt.
func (s *Store) Retrieve(query string, budgetChars int) string {
	if strings.TrimSpace(query) == "" {
		return ""
	}
	if budgetChars <= 0 {
		budgetChars = DefaultCharBudget
	}

	s.mu.Lock()
	docs := append([]Document(nil), s.docs...)
	s.mu.Unlock()

	queryLower := strings.ToLower(query)
	queryWords := wordSet(queryLower)

	var matches []scoredDoc
	for _, doc := range docs {
		haystack := strings.ToLower(doc.Title + " " + doc.Content)
		score := overlapCount(queryWords, wordSet(haystack))
		if strings.Contains(haystack, queryLower) {
			score += exactPhraseBonus
		}
		if score > 0 {
			matches = append(matches, scoredDoc{Document: doc, score: score})
		}
	}
	if len(matches) == 0 {
		return ""
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	var b strings.Builder
	b.WriteString("RELEVANT KNOWLEDGE:")
	used := b.Len()

	for _, m := range matches {
		entry := fmt.Sprintf("\n### %s\n%s", m.Title, m.Content)
		if used+len(entry) > budgetChars {
			remaining := budgetChars - used
			if remaining > 100 {
				b.WriteString(entry[:remaining] + "...")
			}
			break
		}
		b.WriteString(entry)
		used += len(entry)
	}
	return b.String()
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func overlapCount(a, b map[string]bool) int {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	n := 0
	for w := range small {
		if big[w] {
			n++
		}
	}
	return n
}
