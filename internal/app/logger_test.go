package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		level     string
		format    string
		wantDebug bool
		wantInfo  bool
	}{
		{level: "debug", format: "text", wantDebug: true, wantInfo: true},
		{level: "info", format: "json", wantInfo: true},
		{level: "warn", format: "json"},
		{level: "nonsense", format: "text", wantInfo: true},
	}
	for _, tc := range testCases {
		t.Run(tc.level+"/"+tc.format, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := newLogger(tc.level, tc.format, &buf)

			logger.Debug("debug line.")
			logger.Info("info line.")

			require.Equal(t, tc.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line.")))
			require.Equal(t, tc.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line.")))
			if tc.format == "json" && buf.Len() > 0 {
				var rec map[string]any
				require.NoError(t, json.Unmarshal(bytes.Split(buf.Bytes(), []byte("\n"))[0], &rec))
			}
		})
	}
}
