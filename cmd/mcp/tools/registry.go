package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/poseidon/assetmarket/common/apperrors"
	"github.com/poseidon/assetmarket/common/logger"
	"github.com/poseidon/assetmarket/common/payment"
	"github.com/poseidon/assetmarket/common/telemetry"
)

// ErrUnknownTool is returned by Call for a name that was never registered
var ErrUnknownTool = errors.New("unknown tool")

// Handler runs a tool whose arguments already passed schema validation
type Handler func(ctx context.Context, call Call) (any, error)

// Call is one tools/call invocation
type Call struct {
	Arguments json.RawMessage
	Meta      map[string]json.RawMessage
}

// Tool is the tools/list entry for a registered tool
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`

	schema  *jsonschema.Schema
	handler Handler
}

// Content is a single result content block
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the uniform tools/call result
type Result struct {
	Content           []Content      `json:"content"`
	IsError           bool           `json:"isError"`
	StructuredContent any            `json:"structuredContent,omitempty"`
	Meta              map[string]any `json:"_meta,omitempty"`
}

// challenge marks a handler result that asks the caller to pay
type challenge struct {
	required *payment.PaymentRequired
}

// settled is a paid delivery whose settlement goes back in _meta
type settled struct {
	data       any
	settlement *payment.SettleResponse
}

// Registry holds tools in registration order
type Registry struct {
	tools     []*Tool
	byName    map[string]*Tool
	log       *logger.Logger
	telemetry *telemetry.Telemetry
}

// NewRegistry creates an empty registry. tel may be nil.
func NewRegistry(log *logger.Logger, tel *telemetry.Telemetry) *Registry {
	return &Registry{
		byName:    make(map[string]*Tool),
		log:       log,
		telemetry: tel,
	}
}

// Register compiles schema and adds the tool
func (r *Registry) Register(name, description, schema string, handler Handler) error {
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := fmt.Sprintf("https://assetmarket.local/tools/%s.schema.json", name)
	if err := c.AddResource(schemaURL, strings.NewReader(schema)); err != nil {
		return fmt.Errorf("tool %s schema load failed: %w", name, err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("tool %s schema compile failed: %w", name, err)
	}

	tool := &Tool{
		Name:        name,
		Description: description,
		InputSchema: json.RawMessage(schema),
		schema:      compiled,
		handler:     handler,
	}
	r.tools = append(r.tools, tool)
	r.byName[name] = tool
	return nil
}

// List returns the registered tools
func (r *Registry) List() []*Tool {
	return r.tools
}

// Names returns the registered tool names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		names = append(names, t.Name)
	}
	return names
}

// Call validates the arguments and runs the tool. Only an unknown tool is
// returned as an error; everything else becomes an error result.
func (r *Registry) Call(ctx context.Context, name string, call Call) (*Result, error) {
	tool, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	start := time.Now()
	log := r.log.WithContext(ctx).WithTool(name)

	if err := tool.validate(call.Arguments); err != nil {
		res := errorResult(apperrors.Newf(apperrors.ErrValidation, "invalid arguments for %s: %v", name, err))
		r.audit(log, name, start, "bad_request")
		return res, nil
	}

	out, err := tool.handler(ctx, call)
	if err != nil {
		public := apperrors.Public(err)
		if public.HTTPStatus >= 500 {
			log.Error("tool failed", "error", err)
		}
		r.audit(log, name, start, string(public.Code))
		return errorResult(err), nil
	}

	if ch, ok := out.(challenge); ok {
		r.audit(log, name, start, "payment_required")
		return jsonResult(ch.required, true), nil
	}

	if s, ok := out.(settled); ok {
		r.audit(log, name, start, "ok")
		res := jsonResult(map[string]any{"data": s.data}, false)
		res.Meta = map[string]any{MetaPaymentResponse: s.settlement}
		return res, nil
	}

	r.audit(log, name, start, "ok")
	return jsonResult(map[string]any{"data": out}, false), nil
}

func (t *Tool) validate(args json.RawMessage) error {
	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return t.schema.Validate(doc)
}

func (r *Registry) audit(log *logger.Logger, name string, start time.Time, outcome string) {
	if r.telemetry != nil {
		r.telemetry.RecordDuration("tool."+name, start, "tool", name, "outcome", outcome)
		return
	}
	log.Info("tool call", "duration_ms", time.Since(start).Milliseconds(), "outcome", outcome)
}

func errorResult(err error) *Result {
	public := apperrors.Public(err)
	body := map[string]any{
		"error":   public.Code,
		"message": public.Message,
	}
	for k, v := range public.Details {
		body[k] = v
	}
	return jsonResult(body, true)
}

func jsonResult(v any, isError bool) *Result {
	text, err := json.Marshal(v)
	if err != nil {
		text = []byte(`{"error":"internal_error","message":"failed to encode result"}`)
		isError = true
	}
	return &Result{
		Content:           []Content{{Type: "text", Text: string(text)}},
		IsError:           isError,
		StructuredContent: v,
	}
}
