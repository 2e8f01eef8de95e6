package receipts

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"stockledger/internal/core/actor"
	"stockledger/internal/core/apperror"
)

// ApprovalPolicy gates the PENDING→APPROVED transition with a configurable
// CEL expression. Operators express rules like
//
//	direction == "import" || total_quantity < 1000.0
//
// without redeploying. A nil policy allows everything.
type ApprovalPolicy struct {
	expr    string
	program cel.Program
}

// NewApprovalPolicy compiles the expression. The expression must evaluate
// to bool.
func NewApprovalPolicy(expr string) (*ApprovalPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("direction", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("total_quantity", cel.DoubleType),
		cel.Variable("line_count", cel.IntType),
		cel.Variable("actor", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile approval policy: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("approval policy must evaluate to bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build approval policy program: %w", err)
	}

	return &ApprovalPolicy{expr: expr, program: program}, nil
}

// Allow evaluates the policy for a receipt about to be approved.
func (p *ApprovalPolicy) Allow(ctx context.Context, r *Receipt) error {
	if p == nil {
		return nil
	}

	out, _, err := p.program.Eval(map[string]any{
		"direction":      string(r.Direction),
		"kind":           string(r.Kind),
		"total_quantity": r.TotalQuantity().Float64(),
		"line_count":     int64(len(r.Lines)),
		"actor":          actor.Name(ctx),
	})
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("evaluate approval policy: %w", err))
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return apperror.NewInternal(fmt.Errorf("approval policy returned %T, want bool", out.Value()))
	}
	if !allowed {
		return apperror.NewForbidden("approval policy rejected the receipt").
			WithDetail("policy", p.expr).
			WithDetail("receipt_id", r.ID.String())
	}

	return nil
}
