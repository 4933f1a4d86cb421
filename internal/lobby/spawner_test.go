package lobby

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/net/packet"
)

// shSpawner runs script under sh; the trailing "match" argument becomes $0.
func shSpawner(t *testing.T, script string, grace time.Duration) *ExecSpawner {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return &ExecSpawner{Path: sh, Args: []string{"-c", script}, Grace: grace, Log: zap.NewNop()}
}

func TestCloseLetsMatchExitOnStdinEOF(t *testing.T) {
	sp := shSpawner(t, "cat > /dev/null", 5*time.Second)
	proc, err := sp.Spawn(context.Background(), []packet.ClientID{1, 2})
	require.NoError(t, err)

	start := time.Now()
	assert.NoError(t, proc.Close(), "a clean exit is not killed")
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.NoError(t, proc.Close())
}

func TestCloseKillsMatchAfterGrace(t *testing.T) {
	sp := shSpawner(t, "exec sleep 30", 50*time.Millisecond)
	proc, err := sp.Spawn(context.Background(), []packet.ClientID{1, 2})
	require.NoError(t, err)

	start := time.Now()
	err = proc.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "killed")
	assert.Less(t, time.Since(start), 10*time.Second)
}
