package adaptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ErrInvalidExpression is returned for sources that do not parse or reference unknown names.
var ErrInvalidExpression = errors.New("invalid adaptor expression")

// Variables visible to an expression.
const (
	VarData    = "data"
	VarContext = "context"
)

// Compiler turns adaptor sources into domain adaptors.
type Compiler struct {
	functions map[string]function.Function
}

// NewCompiler returns a compiler with the default function library.
func NewCompiler() *Compiler {
	return &Compiler{functions: map[string]function.Function{
		"abs":        stdlib.AbsoluteFunc,
		"ceil":       stdlib.CeilFunc,
		"coalesce":   stdlib.CoalesceFunc,
		"concat":     stdlib.ConcatFunc,
		"contains":   stdlib.ContainsFunc,
		"floor":      stdlib.FloorFunc,
		"format":     stdlib.FormatFunc,
		"join":       stdlib.JoinFunc,
		"jsondecode": stdlib.JSONDecodeFunc,
		"jsonencode": stdlib.JSONEncodeFunc,
		"keys":       stdlib.KeysFunc,
		"length":     stdlib.LengthFunc,
		"lookup":     stdlib.LookupFunc,
		"lower":      stdlib.LowerFunc,
		"max":        stdlib.MaxFunc,
		"merge":      stdlib.MergeFunc,
		"min":        stdlib.MinFunc,
		"replace":    stdlib.ReplaceFunc,
		"split":      stdlib.SplitFunc,
		"substr":     stdlib.SubstrFunc,
		"trimspace":  stdlib.TrimSpaceFunc,
		"upper":      stdlib.UpperFunc,
		"values":     stdlib.ValuesFunc,
	}}
}

// Register adds or replaces a function available to expressions.
func (c *Compiler) Register(name string, fn function.Function) {
	c.functions[name] = fn
}

// Functions returns the sorted names of the available functions.
func (c *Compiler) Functions() []string {
	return slices.Sorted(maps.Keys(c.functions))
}

// Compile parses source and returns an adaptor evaluating it. A blank source yields a
// pass-through adaptor.
func (c *Compiler) Compile(id, source string) (*domain.Adaptor, error) {
	a := &domain.Adaptor{AdaptorID: id, Source: source}
	if strings.TrimSpace(source) == "" {
		return a, nil
	}

	expr, diags := hclsyntax.ParseExpression([]byte(source), id, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrPrecondition, ErrInvalidExpression, diags.Error())
	}
	for _, traversal := range expr.Variables() {
		if root := traversal.RootName(); root != VarData && root != VarContext {
			return nil, fmt.Errorf("%w: %w: unknown variable %q", domain.ErrPrecondition, ErrInvalidExpression, root)
		}
	}
	for _, name := range functionCalls(expr) {
		if _, ok := c.functions[name]; !ok {
			return nil, fmt.Errorf("%w: %w: unknown function %q", domain.ErrPrecondition, ErrInvalidExpression, name)
		}
	}

	functions := maps.Clone(c.functions)
	a.Transform = func(msg domain.Message) (domain.Message, error) {
		data, err := toCty(msg.Data)
		if err != nil {
			return domain.Message{}, fmt.Errorf("data: %w", err)
		}
		ctxVal := cty.EmptyObjectVal
		if len(msg.Context) > 0 {
			if ctxVal, err = toCty(msg.Context); err != nil {
				return domain.Message{}, fmt.Errorf("context: %w", err)
			}
		}
		ectx := &hcl.EvalContext{
			Variables: map[string]cty.Value{VarData: data, VarContext: ctxVal},
			Functions: functions,
		}
		out, diags := expr.Value(ectx)
		if diags.HasErrors() {
			return domain.Message{}, errors.New(diags.Error())
		}
		native, err := Native(out)
		if err != nil {
			return domain.Message{}, err
		}
		return domain.Message{Data: native, Context: msg.Context}, nil
	}
	return a, nil
}

// Validate reports whether source compiles.
func (c *Compiler) Validate(source string) error {
	_, err := c.Compile("validate", source)
	return err
}

func functionCalls(expr hclsyntax.Expression) []string {
	var names []string
	_ = hclsyntax.VisitAll(expr, func(n hclsyntax.Node) hcl.Diagnostics {
		if call, ok := n.(*hclsyntax.FunctionCallExpr); ok {
			names = append(names, call.Name)
		}
		return nil
	})
	return names
}

// toCty converts any JSON-representable value through its JSON encoding, which is the only
// shape a message is guaranteed to have.
func toCty(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return cty.NilVal, err
	}
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(raw, ty)
}

// Native converts a cty value to plain Go values: string, float64, bool, []any,
// map[string]any or nil.
func Native(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, errors.New("expression result is unknown")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0)
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			native, err := Native(el)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, el := it.Element()
			native, err := Native(el)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", k.AsString(), err)
			}
			out[k.AsString()] = native
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported result type %s", ty.FriendlyName())
	}
}
