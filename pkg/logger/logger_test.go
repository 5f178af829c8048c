package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	casos := map[string]zerolog.Level{
		"trace":       zerolog.TraceLevel,
		"debug":       zerolog.DebugLevel,
		"info":        zerolog.InfoLevel,
		"warn":        zerolog.WarnLevel,
		"error":       zerolog.ErrorLevel,
		"desconocido": zerolog.InfoLevel,
		"":            zerolog.InfoLevel,
	}
	for entrada, esperado := range casos {
		assert.Equal(t, esperado, parseLevel(entrada), "nivel %q", entrada)
	}
}

func TestConFactura_FijaElCampo(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{zl: zerolog.New(&buf)}

	fl := l.ConFactura("FAC-7")
	fl.Info().Msg("factura AUTORIZADA")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "FAC-7", out["factura_id"])
	assert.Equal(t, "factura AUTORIZADA", out["message"])
}
