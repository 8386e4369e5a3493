package log_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"fbscrape/internal/log"
)

func TestSetupLevels(t *testing.T) {
	log.Setup(false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	log.Setup(true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
