package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jgirmay/chatroom/pkg/errors"
)

type blockRequest struct {
	BlockerID uint `json:"blocker_id" validate:"required"`
	BlockedID uint `json:"blocked_id" validate:"required,nefield=BlockerID"`
}

func TestValidateReportsJSONNames(t *testing.T) {
	errs := Validate(blockRequest{BlockedID: 2})

	require.Len(t, errs, 1)
	assert.Equal(t, "blocker_id", errs[0].Field)
	assert.Equal(t, "blocker_id is required", errs[0].Message)
}

func TestCheckSelfBlock(t *testing.T) {
	err := Check(blockRequest{BlockerID: 3, BlockedID: 3})

	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.TypeValidation, appErr.Type)
	assert.Equal(t, "blocked_id", appErr.Details["field"])
}

func TestCheckPasses(t *testing.T) {
	assert.NoError(t, Check(blockRequest{BlockerID: 1, BlockedID: 2}))
}
