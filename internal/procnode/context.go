package procnode

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/Iron-Ham/xmod/internal/errors"
)

// EnvSpawnContext names the environment variable through which a parent
// hands its SpawnContext to a worker. Only workers see it.
const EnvSpawnContext = "XMOD_SPAWN_CONTEXT"

// InheritedLogFD is the descriptor number of the event log in a worker.
// It is the first entry of exec.Cmd.ExtraFiles.
const InheritedLogFD = 3

// NoLogFD marks a SpawnContext whose tree runs without an event log.
const NoLogFD = -1

// SpawnContext is everything a worker inherits from its parent besides argv.
type SpawnContext struct {
	// BaseOffsetMs is the parent's logical clock reading at spawn time.
	BaseOffsetMs int64 `json:"base_ms"`
	// LogFD is the inherited event log descriptor, or NoLogFD.
	LogFD int `json:"log_fd"`
	// LogPath is informational; workers never reopen it.
	LogPath string `json:"log_path,omitempty"`
	// RunID identifies the whole tree in diagnostics.
	RunID string `json:"run_id"`
	// Root is the path the root process was started on.
	Root string `json:"root,omitempty"`
}

// BaseOffset returns the inherited base as a duration.
func (c SpawnContext) BaseOffset() time.Duration {
	return time.Duration(c.BaseOffsetMs) * time.Millisecond
}

// Encode serializes the context for the environment.
func (c SpawnContext) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "encode spawn context")
	}
	return string(data), nil
}

// Env returns the KEY=VALUE entry for the context.
func (c SpawnContext) Env() (string, error) {
	value, err := c.Encode()
	if err != nil {
		return "", err
	}
	return EnvSpawnContext + "=" + value, nil
}

// DecodeSpawnContext parses a value produced by Encode.
func DecodeSpawnContext(value string) (SpawnContext, error) {
	var c SpawnContext
	if err := json.Unmarshal([]byte(value), &c); err != nil {
		return SpawnContext{}, errors.NewConfigError("malformed "+EnvSpawnContext, err)
	}
	if c.BaseOffsetMs < 0 {
		return SpawnContext{}, errors.NewConfigError("malformed "+EnvSpawnContext, errors.New("negative base offset"))
	}
	return c, nil
}

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// LookupSpawnContext returns the context handed down by the parent.
// ok is false in the root process.
func LookupSpawnContext(lookup LookupFunc) (ctx SpawnContext, ok bool, err error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, ok := lookup(EnvSpawnContext)
	if !ok || value == "" {
		return SpawnContext{}, false, nil
	}
	ctx, err = DecodeSpawnContext(value)
	if err != nil {
		return SpawnContext{}, false, err
	}
	return ctx, true, nil
}

// withoutSpawnContext drops any inherited context entry from env.
func withoutSpawnContext(env []string) []string {
	prefix := EnvSpawnContext + "="
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			continue
		}
		out = append(out, kv)
	}
	return out
}
