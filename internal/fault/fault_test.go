package fault

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrappersKeepSentinel(t *testing.T) {
	err := Input("healthy source %q is empty", "a.csv")
	assert.True(t, errors.Is(err, ErrInput))
	assert.False(t, errors.Is(err, ErrNumeric))
	assert.Contains(t, err.Error(), "a.csv")
	assert.Equal(t, "input", Kind(err))

	wrapped := fmt.Errorf("stage: %w", Configuration("kernel %d", 9))
	assert.True(t, errors.Is(wrapped, ErrConfiguration))
	assert.Equal(t, "configuration", Kind(wrapped))

	assert.Equal(t, "numeric", Kind(Numeric("nan")))
	assert.Equal(t, "", Kind(errors.New("other")))
	assert.Equal(t, "", Kind(nil))
}
