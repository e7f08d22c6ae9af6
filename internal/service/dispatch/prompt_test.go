package dispatch

import (
	"strings"
	"testing"
	"time"

	"github.com/acme/call-task-dispatcher/internal/domain"
)

func TestFirstMessageDefaultsFromContactAndSubject(t *testing.T) {
	task := &domain.CallTask{CallSubject: "your loan application"}
	contact := &domain.Contact{FirstName: "Dana"}

	got := firstMessage(task, contact)
	want := "Calling Dana regarding your loan application"
	if got != want {
		t.Fatalf("firstMessage = %q, want %q", got, want)
	}
}

func TestFirstMessageOverrideWins(t *testing.T) {
	task := &domain.CallTask{CallSubject: "renewal", FirstMessage: "Hi there, quick question."}
	contact := &domain.Contact{FirstName: "Dana"}

	if got := firstMessage(task, contact); got != "Hi there, quick question." {
		t.Fatalf("firstMessage = %q, want the task override", got)
	}
}

func TestSystemPromptCampaignOverrideWins(t *testing.T) {
	task := &domain.CallTask{CallSubject: "renewal"}
	contact := &domain.Contact{FirstName: "Dana"}

	got := systemPrompt(task, contact, domain.AgentSettings{}, "You are the campaign script.", "+15551234567", time.Now())
	if got != "You are the campaign script." {
		t.Fatalf("systemPrompt = %q, want the campaign prompt verbatim", got)
	}
}

func TestSystemPromptSynthesized(t *testing.T) {
	task := &domain.CallTask{CallSubject: "an overdue invoice"}
	contact := &domain.Contact{FirstName: "Dana"}
	agent := domain.AgentSettings{AgentName: "Ava", Role: "account manager", CompanyName: "Acme"}
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)

	got := systemPrompt(task, contact, agent, "", "+15551234567", now)

	for _, fragment := range []string{
		"You are Ava, a account manager from Acme.",
		`Purpose of Call: "an overdue invoice".`,
		"2026-03-14T15:09:00Z",
		"+15551234567",
		"Dana",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("systemPrompt missing %q in:\n%s", fragment, got)
		}
	}
}

func TestSystemPromptZeroAgentFallsBack(t *testing.T) {
	task := &domain.CallTask{CallSubject: "renewal"}
	contact := &domain.Contact{}

	got := systemPrompt(task, contact, domain.AgentSettings{}, "", "+15551234567", time.Now())

	if !strings.Contains(got, "You are an assistant, a representative from the company.") {
		t.Errorf("systemPrompt did not degrade to anonymous agent:\n%s", got)
	}
	if !strings.Contains(got, "The name on file is: unknown.") {
		t.Errorf("systemPrompt did not degrade missing contact name:\n%s", got)
	}
}
