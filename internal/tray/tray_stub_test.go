//go:build stub

package tray

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_OnlyOnce(t *testing.T) {
	ctrl, err := Start(context.Background(), Options{})
	require.NoError(t, err)
	require.NotNil(t, ctrl)
	defer ctrl.Stop()

	_, err = Start(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}
