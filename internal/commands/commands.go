package commands

import (
	"regexp"
	"strings"
)

type Kind int

const (
	None Kind = iota
	Search
	EmailDraft
)

func (k Kind) String() string {
	switch k {
	case Search:
		return "search"
	case EmailDraft:
		return "email"
	default:
		return "none"
	}
}

// Command is the structured form of a recognized chat command. The zero value
// is the None command.
type Command struct {
	Kind Kind

	// Search
	Query string

	// EmailDraft
	To          string
	Subject     string
	Description string
}

func (c Command) IsNone() bool {
	return c.Kind == None
}

var (
	slashSearch = regexp.MustCompile(`(?is)^/search(?:\s+(.*))?$`)
	slashEmail  = regexp.MustCompile(`(?is)^/email(?:\s+(.*))?$`)

	emailToParam      = regexp.MustCompile(`(?i)to:([^,;]+)(,|;|$)`)
	emailSubjectParam = regexp.MustCompile(`(?i)subject:([^,;]+)(,|;|$)`)

	searchPhrase = regexp.MustCompile(`(?is)^(?:search\s+for|find\s+info\s+on|look\s+up|search|find|google)(?:\s+for)?\s+(.+)$`)
	emailPhrase  = regexp.MustCompile(`(?is)^(?:write|draft|compose|create|send)(?:\s+an|\s+a)?\s+email(?:\s+(about|on|regarding|to))?\s+(.+)$`)

	recipientAndTopic = regexp.MustCompile(`(?is)^(.+?)\s+(?:about|regarding|on)\s+(.+)$`)
)

type rule func(msg string) (Command, bool)

// Rules are tried in order and the first match wins. A rule that matches the
// message shape but yields no usable parameters still stops the search, so
// "/search" on its own is not reinterpreted by a later rule.
var rules = []rule{
	detectSlashSearch,
	detectSlashEmail,
	detectSearchPhrase,
	detectEmailPhrase,
}

// Detect classifies a raw chat message. Matching ignores case and surrounding
// whitespace; extracted parameters keep the original text.
func Detect(message string) Command {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return Command{}
	}

	for _, r := range rules {
		if cmd, matched := r(msg); matched {
			return cmd
		}
	}

	return Command{}
}

func detectSlashSearch(msg string) (Command, bool) {
	m := slashSearch.FindStringSubmatch(msg)
	if m == nil {
		return Command{}, false
	}

	query := strings.TrimSpace(m[1])
	if query == "" {
		return Command{}, true
	}
	return Command{Kind: Search, Query: query}, true
}

func detectSlashEmail(msg string) (Command, bool) {
	m := slashEmail.FindStringSubmatch(msg)
	if m == nil {
		return Command{}, false
	}

	cmd := ParseEmailParams(m[1])
	if cmd.Description == "" {
		return Command{}, true
	}
	return cmd, true
}

// ParseEmailParams extracts "to:" and "subject:" parameters from a free-form
// parameter string. Each parameter runs until the next ',' or ';'. Whatever
// remains is the content description.
func ParseEmailParams(params string) Command {
	cmd := Command{Kind: EmailDraft}
	content := strings.TrimSpace(params)

	if m := emailToParam.FindStringSubmatch(content); m != nil {
		cmd.To = strings.TrimSpace(m[1])
		content = strings.TrimSpace(strings.Replace(content, m[0], "", 1))
	}

	if m := emailSubjectParam.FindStringSubmatch(content); m != nil {
		cmd.Subject = strings.TrimSpace(m[1])
		content = strings.TrimSpace(strings.Replace(content, m[0], "", 1))
	}

	cmd.Description = content
	return cmd
}

func detectSearchPhrase(msg string) (Command, bool) {
	m := searchPhrase.FindStringSubmatch(msg)
	if m == nil {
		return Command{}, false
	}

	query := strings.TrimSpace(m[1])
	if query == "" || strings.EqualFold(query, "for") {
		return Command{}, true
	}
	return Command{Kind: Search, Query: query}, true
}

func detectEmailPhrase(msg string) (Command, bool) {
	m := emailPhrase.FindStringSubmatch(msg)
	if m == nil {
		return Command{}, false
	}

	preposition := strings.ToLower(m[1])
	rest := strings.TrimSpace(m[2])
	if rest == "" || isEmailPreposition(rest) {
		return Command{}, true
	}

	cmd := Command{Kind: EmailDraft, Description: rest}
	if preposition == "to" {
		if parts := recipientAndTopic.FindStringSubmatch(rest); parts != nil {
			cmd.To = strings.TrimSpace(parts[1])
			cmd.Description = strings.TrimSpace(parts[2])
		}
	}

	return cmd, true
}

func isEmailPreposition(s string) bool {
	switch strings.ToLower(s) {
	case "about", "on", "regarding", "to":
		return true
	}
	return false
}
