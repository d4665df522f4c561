// Package toolregistry holds the JSON-Schema-shaped tool declarations sent
// to the provider and the name→handler dispatch table, keeping them in the
// one-to-one correspondence spec §4.5 requires. Arguments are validated
// against the schema before a handler ever runs.
//
// Grounded on the teacher pack's goa-ai runtime/agent/tools/tools.go
// ToolSpec/schema pairing, simplified since SpecTrail's tool set is a
// frozen, ungated list of 7 (no codegen, no per-agent policy — see
// DESIGN.md's note on internal/tools/policy.go).
package toolregistry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spectrail/core/internal/outputbounder"
	"github.com/spectrail/core/pkg/spectrailapi"
)

// Handler executes one tool call and returns a JSON-serialisable result.
// It may return a *spectrailapi.CoreError; fatal kinds abort the run,
// non-fatal kinds are rendered as a ToolErrorEnvelope by Dispatch.
type Handler func(ctx context.Context, args map[string]any) (any, error)

type entry struct {
	def     spectrailapi.ToolDefinition
	schema  *jsonschema.Schema
	handler Handler
}

// Registry is the name→schema and name→dispatch mapping.
type Registry struct {
	entries map[string]*entry
	order   []string
}

// New constructs an empty Registry. Use Register to populate it.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds one tool. schema is a JSON-Schema document (already
// decoded into Go values: map[string]any/[]any/string/float64/bool/nil).
// Register panics on a malformed schema — this is a programming error, not
// a runtime condition, so it is caught at startup wiring time.
func (r *Registry) Register(name, description string, schema map[string]any, handler Handler) {
	c := jsonschema.NewCompiler()
	url := "mem://tool/" + name
	if err := c.AddResource(url, schema); err != nil {
		panic(fmt.Sprintf("toolregistry: invalid schema for %q: %v", name, err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("toolregistry: failed to compile schema for %q: %v", name, err))
	}
	r.entries[name] = &entry{
		def:     spectrailapi.ToolDefinition{Name: name, Description: description, Parameters: schema},
		schema:  compiled,
		handler: handler,
	}
	r.order = append(r.order, name)
}

// Definitions returns the provider-facing tool declarations in
// registration order, for inclusion in a ChatProvider request.
func (r *Registry) Definitions() []spectrailapi.ToolDefinition {
	defs := make([]spectrailapi.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.entries[name].def)
	}
	return defs
}

// perMessageCap bounds the JSON-serialised tool result that gets embedded
// in a persisted tool message, per spec §4.9 ("truncated by OutputBounder
// to a safe per-message cap").
const perMessageCap = 200_000

// Dispatch validates args against name's schema and invokes its handler.
// It never returns a fatal error for UnknownTool or InvalidArgs — those are
// rendered as the JSON error envelope in resultJSON with a nil err, matching
// spec §4.4 ("a tool failure must not crash the loop"). A non-nil err
// indicates a fatal CoreError that must abort the run (e.g. RepoUnavailable
// surfacing from deeper in RepoTools).
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (resultJSON string, truncated bool, err error) {
	e, ok := r.entries[name]
	if !ok {
		return envelope(fmt.Sprintf("unknown tool: %q", name)), false, nil
	}

	if verr := e.schema.Validate(args); verr != nil {
		return envelope(fmt.Sprintf("invalid arguments: %v", verr)), false, nil
	}

	result, herr := e.handler(ctx, args)
	if herr != nil {
		if ce, ok := spectrailapi.AsCoreError(herr); ok {
			if ce.Fatal() {
				return "", false, ce
			}
			return envelope(ce.Message), false, nil
		}
		return envelope(herr.Error()), false, nil
	}

	raw, merr := json.Marshal(result)
	if merr != nil {
		return envelope("failed to encode tool result: " + merr.Error()), false, nil
	}
	clipped, trunc, _ := outputbounder.Bound(string(raw), perMessageCap)
	return clipped, trunc, nil
}

func envelope(message string) string {
	raw, _ := json.Marshal(spectrailapi.ToolErrorEnvelope{Error: message})
	return string(raw)
}
