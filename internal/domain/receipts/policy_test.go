package receipts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/receipts"
)

func TestApprovalPolicyCompile(t *testing.T) {
	_, err := receipts.NewApprovalPolicy(`direction == "import" || total_quantity < 1000.0`)
	require.NoError(t, err)

	_, err = receipts.NewApprovalPolicy(`direction ==`)
	assert.Error(t, err)

	// Must evaluate to bool.
	_, err = receipts.NewApprovalPolicy(`total_quantity + 1.0`)
	assert.Error(t, err)

	// Unknown variables are compile errors, not runtime surprises.
	_, err = receipts.NewApprovalPolicy(`warehouse == "main"`)
	assert.Error(t, err)
}

func TestApprovalPolicyAllow(t *testing.T) {
	policy, err := receipts.NewApprovalPolicy(`total_quantity < 100.0 && line_count <= 2`)
	require.NoError(t, err)

	small := newReceipt(receipts.DirectionImport,
		line(entity.NewProductRef(id.New()), id.New(), 50))
	assert.NoError(t, policy.Allow(context.Background(), small))

	big := newReceipt(receipts.DirectionImport,
		line(entity.NewProductRef(id.New()), id.New(), 500))
	err = policy.Allow(context.Background(), big)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))
}

func TestApprovalPolicyNilAllowsEverything(t *testing.T) {
	var policy *receipts.ApprovalPolicy

	doc := newReceipt(receipts.DirectionExport,
		line(entity.NewMaterialRef(id.New()), id.New(), 1_000_000))
	assert.NoError(t, policy.Allow(context.Background(), doc))
}
