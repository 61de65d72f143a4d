package prompts

import (
	"fmt"
	"sort"
	"strings"
)

var builtinOrder = []string{"normal", "professional", "concise", "creative"}

var builtinPrompts = map[string]string{
	"normal":       normalPrompt,
	"professional": professionalPrompt,
	"concise":      concisePrompt,
	"creative":     creativePrompt,
}

// Resolver maps response style ids to system prompts. It is immutable after
// construction and safe for concurrent use.
type Resolver struct {
	prompts map[string]string
	styles  []string
}

// NewResolver returns a resolver over the built-in styles. Entries in extra add
// new styles or replace the prompt of a built-in one.
func NewResolver(extra map[string]string) *Resolver {
	r := &Resolver{
		prompts: make(map[string]string, len(builtinPrompts)+len(extra)),
		styles:  append([]string(nil), builtinOrder...),
	}
	for style, prompt := range builtinPrompts {
		r.prompts[style] = prompt
	}

	var added []string
	for style, prompt := range extra {
		style = NormalizeStyle(style)
		if style == "" || strings.TrimSpace(prompt) == "" {
			continue
		}
		if _, ok := r.prompts[style]; !ok {
			added = append(added, style)
		}
		r.prompts[style] = prompt
	}
	sort.Strings(added)
	r.styles = append(r.styles, added...)

	return r
}

func NormalizeStyle(style string) string {
	return strings.ToLower(strings.TrimSpace(style))
}

// Resolve returns the system prompt for style, falling back to the normal
// style for unknown or empty ids.
func (r *Resolver) Resolve(style string) string {
	if prompt, ok := r.prompts[NormalizeStyle(style)]; ok {
		return prompt
	}
	return r.prompts[DefaultStyle]
}

func (r *Resolver) Has(style string) bool {
	_, ok := r.prompts[NormalizeStyle(style)]
	return ok
}

func (r *Resolver) Styles() []string {
	return append([]string(nil), r.styles...)
}

func SearchSystemPrompt(query string) string {
	return fmt.Sprintf(searchSystemPrompt, query)
}

func SearchUserPrompt(query, formattedResults string) string {
	return fmt.Sprintf(searchUserPrompt, query, formattedResults)
}

func EmailSystemPrompt(tone string) string {
	return fmt.Sprintf(emailSystemPrompt, tone)
}

func EmailUserPrompt(to, subject, description string) string {
	return fmt.Sprintf(emailUserPrompt, to, subject, description)
}
