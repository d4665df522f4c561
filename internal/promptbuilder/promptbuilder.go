// Package promptbuilder produces the opening system+user message pair for
// each AgentLoop mode (spec §4.8). Grounded on the teacher's prompt-
// assembly conventions in internal/agent/loop.go (system prompt built once
// at run start, user message interpolating task-specific context).
package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/spectrail/core/internal/chatprovider"
)

const planSystemPrompt = `You are SpecTrail's planning agent. Explore the repository using the
available tools (list_files, read_file, grep, git_status, git_diff,
git_log_short) before proposing any change. Once you have enough context,
produce a final answer — no further tool calls — that is a single Markdown
document with exactly these seven sections, in order:

## Summary
## Goals & Non-Goals
## Repo Context Assumptions
## File-by-File Changes
## Step-by-Step Checklist
## Risks + Mitigations
## Validation Steps

Do not include any text outside these sections. Do not fabricate file
contents you have not read.`

const verifySystemPrompt = `You are SpecTrail's verification agent. You have been given the current
diff for a repository, optionally a prior implementation plan, and the
output of any pre-run checks (tests/lint/build). Analyze them and produce a
final answer — no further tool calls needed once you've reviewed the
provided context, though you may use tools to inspect the repository
further — that is a single Markdown document with exactly these four
sections, in order:

## Compliance
## Risk
## Quality
## Recommendations

Be specific: cite file paths and line ranges where possible.`

// PlanPrompt returns the seed system+user messages for a plan run.
func PlanPrompt(taskTitle, repoPath string) (system, user chatprovider.Message) {
	system = chatprovider.Message{Role: "system", Content: planSystemPrompt}
	user = chatprovider.Message{
		Role: "user",
		Content: fmt.Sprintf("Task: %s\nRepository root: %s\n\nExplore the repository and produce an implementation plan for this task.",
			taskTitle, repoPath),
	}
	return system, user
}

// VerifyPrompt returns the seed system+user messages for a verify run.
// checkOutputs is a list of pre-run check summaries (e.g.
// "tests: PASSED\n<stdout>\n<stderr>") that WorkflowFacade seeds into the
// user message per spec §4.10. priorPlan is optional and, when non-empty,
// is included so the agent can check the diff against it.
func VerifyPrompt(taskTitle, repoPath, diff string, priorPlan string, checkOutputs []string) (system, user chatprovider.Message) {
	system = chatprovider.Message{Role: "system", Content: verifySystemPrompt}

	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\nRepository root: %s\n\n", taskTitle, repoPath)
	if priorPlan != "" {
		b.WriteString("## Prior plan\n\n")
		b.WriteString(priorPlan)
		b.WriteString("\n\n")
	}
	b.WriteString("## Current diff\n\n```diff\n")
	b.WriteString(diff)
	b.WriteString("\n```\n\n")
	if len(checkOutputs) > 0 {
		b.WriteString("## Pre-run check results\n\n")
		for _, c := range checkOutputs {
			b.WriteString(c)
			b.WriteString("\n\n")
		}
	}
	b.WriteString("Produce the verification report now.")

	user = chatprovider.Message{Role: "user", Content: b.String()}
	return system, user
}
