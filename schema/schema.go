// Package schema hosts the contract registry for the pipeline. It embeds the
// four JSON Schema documents that govern every stage boundary (agent input,
// agent output, simulation request, simulation result), compiles each of them
// exactly once per process, and exposes a pure validation function that
// reports violations as descriptors instead of raising errors.
//
// The registry is read-only after initialization, so it is safe to share
// across concurrent pipeline runs without locking.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

type (
	// Kind identifies one of the registered contracts.
	Kind string

	// ErrorDescriptor describes a single schema violation. It is diagnostic
	// information for logs and operators, not a machine-retry signal.
	ErrorDescriptor struct {
		// Path locates the offending value as a slash-joined pointer from the
		// document root. The root itself is reported as "/".
		Path string

		// Message is a human-readable description of the violation.
		Message string
	}

	registry struct {
		schemas map[Kind]*jsonschema.Schema
		printer *message.Printer
	}
)

// Contract kinds known to the registry.
const (
	// AgentInput is the inbound caller contract.
	AgentInput Kind = "agent_input"
	// AgentOutput is the outbound caller contract.
	AgentOutput Kind = "agent_output"
	// SimRequest is the planner-to-simulator handoff contract.
	SimRequest Kind = "sim_request"
	// SimResult is the simulator-to-explainer handoff contract.
	SimResult Kind = "sim_result"
)

var (
	once     sync.Once
	compiled *registry
)

// Validate checks payload against the contract identified by kind and returns
// one descriptor per violation. An empty slice means the payload conforms.
//
// Validate accepts both decoded JSON values (map[string]any et al.) and Go
// structs; structs are round-tripped through encoding/json before validation
// so their JSON representation is what gets checked. Validate never panics on
// malformed payloads: payloads that cannot be represented as JSON objects are
// reported as a root-level violation.
func Validate(payload any, kind Kind) []ErrorDescriptor {
	reg := load()
	sch, ok := reg.schemas[kind]
	if !ok {
		return []ErrorDescriptor{{Path: "/", Message: fmt.Sprintf("unknown contract kind %q", kind)}}
	}
	doc, err := normalize(payload)
	if err != nil {
		return []ErrorDescriptor{{Path: "/", Message: fmt.Sprintf("payload is not valid JSON: %v", err)}}
	}
	err = sch.Validate(doc)
	if err == nil {
		return nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []ErrorDescriptor{{Path: "/", Message: err.Error()}}
	}
	return reg.flatten(verr)
}

// MustCompile forces registry initialization and returns the compiled schema
// for kind. It panics when kind is unknown; embedded contracts are compiled at
// first use and a compilation failure is a programmer error.
func MustCompile(kind Kind) *jsonschema.Schema {
	reg := load()
	sch, ok := reg.schemas[kind]
	if !ok {
		panic(fmt.Sprintf("schema: unknown contract kind %q", kind))
	}
	return sch
}

// load returns the process-wide registry, compiling the embedded contract
// documents on first use.
func load() *registry {
	once.Do(func() {
		reg := &registry{
			schemas: make(map[Kind]*jsonschema.Schema, 4),
			printer: message.NewPrinter(language.English),
		}
		for _, kind := range []Kind{AgentInput, AgentOutput, SimRequest, SimResult} {
			reg.schemas[kind] = compile(kind)
		}
		compiled = reg
	})
	return compiled
}

// compile reads and compiles a single embedded contract document. Failures
// panic: the documents ship with the binary, so a compile error can only be
// introduced at development time.
func compile(kind Kind) *jsonschema.Schema {
	name := fmt.Sprintf("schemas/%s.schema.json", kind)
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("schema: read %s: %v", name, err))
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("schema: unmarshal %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("schema: add resource %s: %v", name, err))
	}
	sch, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("schema: compile %s: %v", name, err))
	}
	return sch
}

// normalize converts payload to a decoded JSON value so struct payloads
// validate the same way their wire representation would.
func normalize(payload any) (any, error) {
	switch payload.(type) {
	case nil, map[string]any, []any:
		return payload, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

// flatten walks the validation error tree and emits one descriptor per leaf
// cause. Leaves carry the most specific instance location and keyword message.
func (r *registry) flatten(verr *jsonschema.ValidationError) []ErrorDescriptor {
	var descs []ErrorDescriptor
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			descs = append(descs, ErrorDescriptor{
				Path:    pointerPath(e.InstanceLocation),
				Message: e.ErrorKind.LocalizedString(r.printer),
			})
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return descs
}

// pointerPath renders an instance location as a slash-joined pointer. The
// document root is "/".
func pointerPath(location []string) string {
	if len(location) == 0 {
		return "/"
	}
	var b bytes.Buffer
	for _, seg := range location {
		b.WriteByte('/')
		b.WriteString(seg)
	}
	return b.String()
}

// String returns the descriptor in "path: message" form.
func (d ErrorDescriptor) String() string {
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}
