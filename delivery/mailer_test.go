package delivery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogMailer_NeverFails(t *testing.T) {
	t.Parallel()

	err := LogMailer{}.SendOTP(context.Background(), "aline@example.com", "123456")
	assert.NoError(t, err)
}
