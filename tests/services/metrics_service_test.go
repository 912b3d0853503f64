package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gridlab/board-agent/internal/services"
)

// TestMetricsService_Lifecycle tests the start and stop guards.
func TestMetricsService_Lifecycle(t *testing.T) {
	logger := zerolog.Nop()

	ms := services.NewMetricsService(1*time.Hour, logger)

	err := ms.Start()
	assert.NoError(t, err)

	err = ms.Start()
	assert.Error(t, err)
	assert.Equal(t, "metrics service is already running", err.Error())

	err = ms.Stop()
	assert.NoError(t, err)

	err = ms.Stop()
	assert.Error(t, err)
	assert.Equal(t, "metrics service is not running", err.Error())
}
