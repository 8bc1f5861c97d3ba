package main

import (
	"bytes"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ZerologAdapter_ConvertsKeyValueArgs(t *testing.T) {
	// arrange
	var buffer bytes.Buffer
	adapter := newZerologAdapter(zerolog.New(&buffer))

	// act
	adapter.Info("unit of work committed", "operation", "add_book", "retry_attempts", 1)

	// assert
	var entry map[string]any
	require.NoError(t, jsoniter.ConfigFastest.Unmarshal(buffer.Bytes(), &entry))
	assert.Equal(t, "unit of work committed", entry["message"])
	assert.Equal(t, "add_book", entry["operation"])
	assert.EqualValues(t, 1, entry["retry_attempts"])
	assert.Equal(t, "info", entry["level"])
}

func Test_ZerologAdapter_IgnoresDanglingKey(t *testing.T) {
	// arrange
	var buffer bytes.Buffer
	adapter := newZerologAdapter(zerolog.New(&buffer))

	// act - an odd arg count must not panic
	adapter.Error("snapshot load failed", "error")

	// assert
	var entry map[string]any
	require.NoError(t, jsoniter.ConfigFastest.Unmarshal(buffer.Bytes(), &entry))
	assert.Equal(t, "snapshot load failed", entry["message"])
	_, present := entry["error"]
	assert.False(t, present)
}
