package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/acme/call-task-dispatcher/internal/domain"
)

// firstMessage picks the opening line: the task override wins, otherwise
// one is synthesized from the contact and the call subject.
func firstMessage(task *domain.CallTask, contact *domain.Contact) string {
	if task.FirstMessage != "" {
		return task.FirstMessage
	}
	return fmt.Sprintf("Calling %s regarding %s", contact.FirstName, task.CallSubject)
}

// systemPrompt picks the conversation instructions: a campaign prompt
// wins, otherwise one is synthesized around the call subject and the
// user's agent settings. Zero-value agent settings degrade to an
// anonymous representative rather than failing the dispatch.
func systemPrompt(task *domain.CallTask, contact *domain.Contact, agent domain.AgentSettings, campaignPrompt, destination string, now time.Time) string {
	if campaignPrompt != "" {
		return campaignPrompt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s from %s.\n", orUnknown(agent.AgentName, "an assistant"), orUnknown(agent.Role, "representative"), orUnknown(agent.CompanyName, "the company"))
	fmt.Fprintf(&b, "Purpose of Call: %q.\n", task.CallSubject)
	if agent.Prompt != "" {
		b.WriteString(agent.Prompt)
		b.WriteString("\n")
	}
	b.WriteString("In the opening, introduce yourself and the reason for the call, then ask if the person is interested.\n")
	b.WriteString("Keep responses concise, as this is a phone conversation, and wait for the person to finish speaking before responding.\n")
	b.WriteString("If the conversation drifts, answer politely and steer it back to the purpose of the call.\n")
	b.WriteString("Never verbally provide a URL unless requested.\n")
	fmt.Fprintf(&b, "The current date and time at the beginning of this phone call is: %s.\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "The number being called is %s. The name on file is: %s.", destination, orUnknown(contact.FirstName, "unknown"))
	return b.String()
}

func orUnknown(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
