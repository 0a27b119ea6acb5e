package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrDuplicateName, "course name already used")
	assert.True(t, errors.Is(err, ErrDuplicateName))
	assert.False(t, errors.Is(err, ErrValidation))

	wrapped := fmt.Errorf("create course: %w", Persistence(errors.New("disk full"), "save failed"))
	assert.True(t, errors.Is(wrapped, ErrPersistence))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, 500, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Validation(errors.New("name required"), "invalid student payload")
	assert.Equal(t, "invalid student payload: name required", err.Error())
	assert.Equal(t, "name required", errors.Unwrap(err).Error())
}
