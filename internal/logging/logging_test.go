package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	require.NoError(t, Configure(Options{Level: "warn", Format: "json", Output: &buf}))

	log.Info().Msg("hidden")
	log.Warn().Str("identifier", "11112222").Msg("visible")

	var event map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event))
	assert.Equal(t, "visible", event["message"])
	assert.Equal(t, "11112222", event["identifier"])
}

func TestConfigure_InvalidLevel(t *testing.T) {
	assert.Error(t, Configure(Options{Level: "loud"}))
}

func TestOptionsFromViper(t *testing.T) {
	v := viper.New()
	v.Set(KeyLevel, "debug")
	v.Set(KeyFormat, "json")
	v.Set(KeyNoColor, true)

	assert.Equal(t, Options{Level: "debug", Format: "json", NoColor: true}, OptionsFromViper(v))
}

func TestTee(t *testing.T) {
	var buf bytes.Buffer
	zlog := zerolog.New(&buf)

	var lines []string
	l := Tee(zlog, func(level, msg string) {
		lines = append(lines, level+": "+msg)
	})
	l.Info("pruned %d records", 3)
	l.Warn("slow")
	l.Error("boom")

	assert.Equal(t, []string{"info: pruned 3 records", "warn: slow", "error: boom"}, lines)
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.Contains(t, buf.String(), `"level":"error"`)

	// without a sink it only logs
	assert.NotPanics(t, func() { Tee(zlog, nil).Info("ok") })
}
