package models

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one message of a conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type DecisionKind string

const (
	DecisionAnswer   DecisionKind = "answer"
	DecisionToolCall DecisionKind = "tool_call"
)

// Decision is the oracle's choice for a turn: a direct answer or a tool call.
type Decision struct {
	Kind      DecisionKind   `json:"kind"`
	Text      string         `json:"answer,omitempty"`
	Operation string         `json:"tool,omitempty"`
	Arguments map[string]any `json:"args,omitempty"`
}

// DirectAnswer builds an answer decision.
func DirectAnswer(text string) Decision {
	return Decision{Kind: DecisionAnswer, Text: text}
}

// ToolCall builds a tool-call decision.
func ToolCall(operation string, args map[string]any) Decision {
	if args == nil {
		args = map[string]any{}
	}
	return Decision{Kind: DecisionToolCall, Operation: operation, Arguments: args}
}

type OutboundKind string

const (
	OutboundText         OutboundKind = "text"
	OutboundJSON         OutboundKind = "json"
	OutboundConfirmation OutboundKind = "confirmation"
	OutboundError        OutboundKind = "error"
)

// OutboundMessage is what a turn returns to the caller.
type OutboundMessage struct {
	Kind OutboundKind `json:"kind"`
	Text string       `json:"text"`
	Tool string       `json:"tool,omitempty"`
}
