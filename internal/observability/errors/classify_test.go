package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Classify(nil))
	assert.Equal(t, "refresh_failed", Classify(fmt.Errorf("list: %w", apperrors.RefreshFailed(errors.New("401")))))
	assert.Equal(t, "network", Classify(apperrors.Network(&net.OpError{Op: "dial"})))
	assert.Equal(t, "errors_errorstring", Classify(fmt.Errorf("wrap: %w", errors.New("x"))))
	assert.NotEmpty(t, Classify(context.DeadlineExceeded))
}
