package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveBuiltinStyles(t *testing.T) {
	r := NewResolver(nil)

	assert.Equal(t, normalPrompt, r.Resolve("normal"))
	assert.Equal(t, professionalPrompt, r.Resolve("professional"))
	assert.Equal(t, concisePrompt, r.Resolve("Concise"))
	assert.Equal(t, creativePrompt, r.Resolve(" creative "))
}

func TestResolveFallsBackToNormal(t *testing.T) {
	r := NewResolver(nil)

	assert.Equal(t, normalPrompt, r.Resolve(""))
	assert.Equal(t, normalPrompt, r.Resolve("pirate"))
	assert.False(t, r.Has("pirate"))
}

func TestResolverExtraStyles(t *testing.T) {
	r := NewResolver(map[string]string{
		"Pirate":  "Talk like a pirate.",
		"concise": "One word answers.",
		"empty":   "   ",
	})

	assert.Equal(t, "Talk like a pirate.", r.Resolve("pirate"))
	assert.Equal(t, "One word answers.", r.Resolve("concise"))
	assert.Equal(t, normalPrompt, r.Resolve("empty"))
	assert.Equal(t, []string{"normal", "professional", "concise", "creative", "pirate"}, r.Styles())
}

func TestAuxiliaryPrompts(t *testing.T) {
	assert.Contains(t, SearchSystemPrompt("go generics"), `"go generics"`)
	assert.Contains(t, SearchUserPrompt("go generics", "Result 1:"), "Result 1:")
	assert.Contains(t, EmailSystemPrompt("brief and to the point"), "Draft a brief and to the point email")

	user := EmailUserPrompt("bob@example.com", "Budget", "the Q3 budget")
	assert.Contains(t, user, "To: bob@example.com")
	assert.Contains(t, user, "Subject: Budget")
	assert.Contains(t, user, "Content description: the Q3 budget")
}
