package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesOnCode(t *testing.T) {
	detailed := ErrValidation.WithDetails(map[string]string{"email": "required"})

	assert.ErrorIs(t, detailed, ErrValidation)
	assert.NotErrorIs(t, detailed, ErrInvalidID)
	assert.Nil(t, ErrValidation.Details, "WithDetails must not mutate the sentinel")
}

func TestAsThroughWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("handler failed, %w", Internal(cause))

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.ErrorIs(t, err, cause)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: Recipe not found", NotFound("Recipe not found").Error())
	assert.Contains(t, ErrDuplicateKey.Wrap(errors.New("E11000")).Error(), "E11000")
}
