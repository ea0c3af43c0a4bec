package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitLevels(t *testing.T) {
	t.Cleanup(func() { Log = zerolog.Nop() })

	Init("production", "warn")
	assert.Equal(t, zerolog.WarnLevel, Log.GetLevel())

	Init("production", "nonsense")
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())

	Init("development", "")
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())
}
