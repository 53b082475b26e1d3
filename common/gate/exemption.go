package gate

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/poseidon/assetmarket/common/models"
)

// CELRule is an ExemptionRule written in CEL. The expression sees one
// variable, asset, with fields id, title, type, price, tags, creatorId
// and mimeType, and must return a bool. Example:
//
//	"free" in asset.tags || asset.price < 0.001
type CELRule struct {
	expr string
	prg  cel.Program
}

// NewCELRule compiles expr once; evaluation is then lock free
func NewCELRule(expr string) (*CELRule, error) {
	env, err := cel.NewEnv(
		cel.Variable("asset", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &CELRule{expr: expr, prg: prg}, nil
}

// Exempt evaluates the rule against asset
func (r *CELRule) Exempt(asset *models.Asset) (bool, error) {
	price, _ := asset.Price.Float64()

	tags := asset.Tags
	if tags == nil {
		tags = []string{}
	}

	out, _, err := r.prg.Eval(map[string]any{
		"asset": map[string]any{
			"id":        asset.ID.String(),
			"title":     asset.Title,
			"type":      string(asset.Type),
			"price":     price,
			"tags":      tags,
			"creatorId": asset.CreatorID,
			"mimeType":  asset.MimeType,
		},
	})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return boolean, got %T", out.Value())
	}
	return result, nil
}

// String returns the source expression
func (r *CELRule) String() string {
	return r.expr
}
