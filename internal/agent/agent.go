// Package agent binds a primary table (and an optional mapping lookup
// table) to the fixed operation set and drives the language-model
// planning loop: the model selects tool calls, the agent executes them
// against the held tables, and every outcome returns to the model as a
// structured envelope until it produces a final answer.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tablenerd/internal/logging"
	"tablenerd/internal/perception"
	"tablenerd/internal/store"
	"tablenerd/internal/table"
	"tablenerd/internal/tableops"
)

// DefaultMaxIterations bounds planning/execution round-trips per query.
const DefaultMaxIterations = 10

// Exchange is one persisted conversational turn: the user's query and
// the agent's final answer. Tool calls in between are planning turns and
// are not persisted here.
type Exchange struct {
	Human string
	Agent string
}

// Agent is the orchestrator. It is exclusively owned by one session and
// processes queries synchronously, one at a time.
type Agent struct {
	llm     perception.LLMClient
	primary *table.Table
	mapping *table.Table

	tools     []*Tool
	toolIndex map[string]*Tool
	toolDefs  []perception.ToolDefinition

	history       []Exchange
	maxIterations int

	sessionID  string
	transcript *store.SessionStore // optional audit trail
	turn       int
}

// Option configures an Agent at construction.
type Option func(*Agent)

// WithMapping attaches a read-only mapping table for enrichment joins.
func WithMapping(mapping *table.Table) Option {
	return func(a *Agent) { a.mapping = mapping }
}

// WithMaxIterations overrides the planning round-trip limit.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithTranscript attaches a session store that records one row per
// completed query.
func WithTranscript(s *store.SessionStore) Option {
	return func(a *Agent) { a.transcript = s }
}

// New constructs an agent bound to the given primary table. The tool
// registry is built once here and published to the model as a static
// schema list.
func New(llm perception.LLMClient, primary *table.Table, opts ...Option) (*Agent, error) {
	if llm == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if primary == nil {
		return nil, fmt.Errorf("primary table is required")
	}

	a := &Agent{
		llm:           llm,
		primary:       primary,
		maxIterations: DefaultMaxIterations,
		sessionID:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.tools = a.buildTools()
	a.toolIndex = make(map[string]*Tool, len(a.tools))
	a.toolDefs = make([]perception.ToolDefinition, 0, len(a.tools))
	for _, t := range a.tools {
		if _, dup := a.toolIndex[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name)
		}
		a.toolIndex[t.Name] = t
		a.toolDefs = append(a.toolDefs, t.Definition())
	}

	logging.Agent("agent created: session=%s tools=%d primary_rows=%d mapping=%v",
		a.sessionID, len(a.tools), primary.NumRows(), a.mapping != nil)
	return a, nil
}

// SessionID returns the agent's session identifier.
func (a *Agent) SessionID() string { return a.sessionID }

// Primary returns the current primary table reference.
func (a *Agent) Primary() *table.Table { return a.primary }

// History returns the persisted conversation so far.
func (a *Agent) History() []Exchange {
	out := make([]Exchange, len(a.history))
	copy(out, a.history)
	return out
}

// ToolNames returns the registered tool names, in registration order.
func (a *Agent) ToolNames() []string {
	names := make([]string, len(a.tools))
	for i, t := range a.tools {
		names[i] = t.Name
	}
	return names
}

// Run resolves one user query: it loops between model planning and tool
// execution until the model emits a final text answer. A planning-call
// failure or an exhausted iteration budget aborts the query with a
// non-silent error; the held tables are only ever updated by successful
// transformations, so a failed query leaves them as the last successful
// tool call left them.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	logging.Agent("run: session=%s query_len=%d", a.sessionID, len(query))

	messages := a.historyMessages()
	messages = append(messages, perception.UserMessage(query))

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		resp, err := a.llm.CompleteWithTools(ctx, systemPrompt, messages, a.toolDefs)
		if err != nil {
			logging.AgentError("run: planning call failed: %v", err)
			return "", fmt.Errorf("planning call failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			answer := resp.Text
			if answer == "" {
				return "", fmt.Errorf("model returned neither a tool call nor an answer")
			}
			a.history = append(a.history, Exchange{Human: query, Agent: answer})
			a.recordTranscript(query, answer)
			logging.Agent("run: completed session=%s iterations=%d", a.sessionID, iteration+1)
			return answer, nil
		}

		messages = append(messages, perception.Message{
			Role:      perception.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		results := make([]perception.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			envelope := a.executeToolCall(call)
			results = append(results, perception.ToolResult{
				ToolUseID: call.ID,
				Content:   envelope.JSON(),
				IsError:   !envelope.ExecutionSuccess,
			})
		}
		messages = append(messages, perception.Message{
			Role:        perception.RoleTool,
			ToolResults: results,
		})
	}

	return "", fmt.Errorf("query not resolved within %d planning iterations", a.maxIterations)
}

// executeToolCall dispatches one model-issued call and always yields an
// envelope: unknown tools, bad arguments and handler panics all become
// classified failure envelopes rather than escaping this boundary.
func (a *Agent) executeToolCall(call perception.ToolCall) (envelope *ToolResponse) {
	defer func() {
		if r := recover(); r != nil {
			logging.AgentError("tool %s panicked: %v", call.Name, r)
			envelope = Failure(tableops.Classify(call.Name, fmt.Errorf("internal error: %v", r)))
		}
	}()

	tool, ok := a.toolIndex[call.Name]
	if !ok {
		logging.Tools("unknown tool requested: %s", call.Name)
		return Failure(&tableops.InvalidOperationError{
			Operation: "tool dispatch",
			Detail:    fmt.Sprintf("unknown tool '%s'", call.Name),
		})
	}

	for _, required := range tool.Schema.Required {
		if _, present := call.Input[required]; !present {
			return Failure(&tableops.InvalidOperationError{
				Operation: call.Name,
				Detail:    fmt.Sprintf("missing required argument '%s'", required),
			})
		}
	}

	logging.ToolsDebug("executing tool: %s", call.Name)
	envelope = tool.Handler(call.Input)
	logging.Tools("tool %s completed success=%v", call.Name, envelope.ExecutionSuccess)
	return envelope
}

// historyMessages converts persisted exchanges into plain user/assistant
// turns for the next planning call.
func (a *Agent) historyMessages() []perception.Message {
	messages := make([]perception.Message, 0, len(a.history)*2+1)
	for _, ex := range a.history {
		messages = append(messages, perception.UserMessage(ex.Human))
		messages = append(messages, perception.AssistantMessage(ex.Agent))
	}
	return messages
}

func (a *Agent) recordTranscript(query, answer string) {
	if a.transcript == nil {
		return
	}
	a.turn++
	if err := a.transcript.StoreTurn(a.sessionID, a.turn, query, answer); err != nil {
		// The transcript is an audit trail; a write failure must not
		// fail the query.
		logging.AgentError("failed to store transcript turn %d: %v", a.turn, err)
	}
}
