package knowledge

import "testing"

func TestRetrieveRanksExactPhraseAboveWordOverlap(t *testing.T) {
	s := NewStore()
	s.AddDocument(Document{ID: "hours", Title: "Business Hours", Content: "Open Monday through Friday, 9 AM to 5 PM."})
	s.AddDocument(Document{ID: "returns", Title: "Return Policy", Content: "Items can be returned within 30 days with a receipt."})

	out := s.Retrieve("what is your return policy", DefaultCharBudget)
	if out == "" {
		t.Fatal("expected a non-empty result")
	}
	returnsIdx := indexOf(out, "Return Policy")
	hoursIdx := indexOf(out, "Business Hours")
	if returnsIdx < 0 {
		t.Fatal("expected Return Policy to be included")
	}
	if hoursIdx >= 0 && hoursIdx < returnsIdx {
		t.Fatal("expected the exact-phrase match to be ranked first")
	}
}

func TestRetrieveReturnsEmptyWhenNothingMatches(t *testing.T) {
	s := NewStore()
	s.AddDocument(Document{ID: "hours", Title: "Business Hours", Content: "Open 9 to 5."})

	if out := s.Retrieve("quantum entanglement warranty", DefaultCharBudget); out != "" {
		t.Fatalf("expected no match, got %q", out)
	}
}

func TestRetrieveTruncatesToBudget(t *testing.T) {
	s := NewStore()
	s.AddDocument(Document{ID: "a", Title: "Policy A", Content: "refund refund refund " + repeat("x", 5000)})
	s.AddDocument(Document{ID: "b", Title: "Policy B", Content: "refund " + repeat("y", 5000)})

	out := s.Retrieve("refund", 200)
	if len(out) > 260 {
		t.Fatalf("expected output roughly bounded by the budget, got %d chars", len(out))
	}
}

func repeat(s string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = s[0]
	}
	return string(b)
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
