package testabilities_test

import (
	"testing"

	"github.com/ribasushi/go-fil-spid/pkg/internal/testabilities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTB struct {
	testing.TB
	lines []string
}

func (r *recordingTB) Log(args ...any) {
	for _, arg := range args {
		r.lines = append(r.lines, arg.(string))
	}
}

func TestNewTestLogger(t *testing.T) {
	// given:
	recorder := &recordingTB{TB: t}
	logger := testabilities.NewTestLogger(recorder)

	// when:
	logger.Debug("Resolved worker key", "worker", "f01100")

	// then:
	require.Len(t, recorder.lines, 1)
	assert.Contains(t, recorder.lines[0], "level=DEBUG")
	assert.Contains(t, recorder.lines[0], "worker=f01100")
	assert.NotContains(t, recorder.lines[0], "\n")
}
