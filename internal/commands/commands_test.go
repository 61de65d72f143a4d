package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSearch(t *testing.T) {
	cases := map[string]string{
		"search for rust ownership":     "rust ownership",
		"Search rust ownership":         "rust ownership",
		"  find info on Go Generics  ":  "Go Generics",
		"look up the weather in Paris":  "the weather in Paris",
		"google for cheap flights":      "cheap flights",
		"FIND   Best Pizza":             "Best Pizza",
		"/search ai safety":             "ai safety",
		"/SEARCH   distributed systems": "distributed systems",
	}

	for msg, query := range cases {
		t.Run(msg, func(t *testing.T) {
			cmd := Detect(msg)
			assert.Equal(t, Search, cmd.Kind)
			assert.Equal(t, query, cmd.Query)
		})
	}
}

func TestDetectEmail(t *testing.T) {
	cmd := Detect("draft an email about the Q3 budget")
	assert.Equal(t, Command{Kind: EmailDraft, Description: "the Q3 budget"}, cmd)

	cmd = Detect("Write an email to Dana about the offsite agenda")
	assert.Equal(t, Command{Kind: EmailDraft, To: "Dana", Description: "the offsite agenda"}, cmd)

	cmd = Detect("compose email regarding Late Invoices")
	assert.Equal(t, Command{Kind: EmailDraft, Description: "Late Invoices"}, cmd)

	cmd = Detect("send a email thanking the team")
	assert.Equal(t, Command{Kind: EmailDraft, Description: "thanking the team"}, cmd)

	cmd = Detect("write an email to the whole team")
	assert.Equal(t, Command{Kind: EmailDraft, Description: "the whole team"}, cmd)
}

func TestDetectSlashEmail(t *testing.T) {
	cmd := Detect("/email to: bob@example.com, subject: Lunch; invite Bob to lunch on Friday")
	assert.Equal(t, EmailDraft, cmd.Kind)
	assert.Equal(t, "bob@example.com", cmd.To)
	assert.Equal(t, "Lunch", cmd.Subject)
	assert.Equal(t, "invite Bob to lunch on Friday", cmd.Description)

	cmd = Detect("/email ask for a deadline extension")
	assert.Equal(t, Command{Kind: EmailDraft, Description: "ask for a deadline extension"}, cmd)
}

func TestDetectNone(t *testing.T) {
	for _, msg := range []string{
		"",
		"   ",
		"hello there",
		"search",
		"search for",
		"/search",
		"/search    ",
		"/email to: bob@example.com",
		"/searching for things",
		"write an email",
		"compose email about",
		"finding nemo is a great movie",
		"what is a good email client?",
	} {
		t.Run(msg, func(t *testing.T) {
			assert.True(t, Detect(msg).IsNone(), "expected no command for %q", msg)
		})
	}
}

func TestDetectFirstMatchWins(t *testing.T) {
	// Search rules come before email rules.
	cmd := Detect("search for how to write an email about layoffs")
	assert.Equal(t, Search, cmd.Kind)
	assert.Equal(t, "how to write an email about layoffs", cmd.Query)

	// Slash commands come before phrase rules.
	cmd = Detect("/email search for a new vendor")
	assert.Equal(t, EmailDraft, cmd.Kind)
	assert.Equal(t, "search for a new vendor", cmd.Description)
}

func TestParseEmailParams(t *testing.T) {
	cmd := ParseEmailParams("subject: Status update, to: ops@example.com; weekly status")
	assert.Equal(t, "ops@example.com", cmd.To)
	assert.Equal(t, "Status update", cmd.Subject)
	assert.Equal(t, "weekly status", cmd.Description)

	cmd = ParseEmailParams("  just a note  ")
	assert.Equal(t, "", cmd.To)
	assert.Equal(t, "", cmd.Subject)
	assert.Equal(t, "just a note", cmd.Description)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "search", Search.String())
	assert.Equal(t, "email", EmailDraft.String())
}
