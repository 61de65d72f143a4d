package suggest

import "strings"

const MaxSuggestions = 4

var defaultSuggestions = []string{
	"Tell me more about this",
	"Explain in simpler terms",
	"Give me an example",
}

type topicRule struct {
	keywords    []string
	suggestions []string
}

// Checked against the user message in order; the first matching rule replaces
// the default list.
var topicRules = []topicRule{
	{
		keywords:    []string{"search", "find"},
		suggestions: []string{"Search the web for more info", "Find latest news on this topic", "Compare with alternatives"},
	},
	{
		keywords:    []string{"email", "write"},
		suggestions: []string{"Draft an email about this", "Make it more formal", "Make it more concise"},
	},
	{
		keywords:    []string{"document", "file"},
		suggestions: []string{"Summarize this document", "Extract key points", "What are the main themes?"},
	},
	{
		keywords:    []string{"code", "program"},
		suggestions: []string{"Explain this code", "Optimize this code", "Add comments to the code"},
	},
	{
		keywords:    []string{"explain", "how"},
		suggestions: []string{"Explain with an example", "Show me code for this", "Why is this important?"},
	},
}

// Checked against the assistant response; every matching rule appends.
var responseRules = []topicRule{
	{keywords: []string{"search", "recent"}, suggestions: []string{"Search for latest information"}},
	{keywords: []string{"upload", "document"}, suggestions: []string{"How to upload a document?"}},
	{keywords: []string{"example", "instance"}, suggestions: []string{"Show me more examples"}},
}

// Suggest derives up to MaxSuggestions follow-up prompts from keywords in the
// user message and the assistant response.
func Suggest(userMessage, assistantResponse string) []string {
	user := strings.ToLower(userMessage)
	response := strings.ToLower(assistantResponse)

	base := defaultSuggestions
	for _, rule := range topicRules {
		if containsAny(user, rule.keywords) {
			base = rule.suggestions
			break
		}
	}

	out := append([]string(nil), base...)
	for _, rule := range responseRules {
		if containsAny(response, rule.keywords) {
			out = append(out, rule.suggestions...)
		}
	}

	return Limit(out)
}

// Default returns a copy of the suggestions used when nothing matches.
func Default() []string {
	return append([]string(nil), defaultSuggestions...)
}

// Limit removes duplicates, keeping first occurrences, and truncates to
// MaxSuggestions.
func Limit(suggestions []string) []string {
	seen := make(map[string]struct{}, len(suggestions))
	out := make([]string, 0, MaxSuggestions)
	for _, s := range suggestions {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

func ForSearch(query string) []string {
	return Limit([]string{
		"Tell me more about " + query,
		"How does " + query + " work?",
		"Compare " + query + " with alternatives",
	})
}

func ForEmail() []string {
	return Limit([]string{
		"Make this email more formal",
		"Make this email more casual",
		"Add more details to this email",
	})
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
