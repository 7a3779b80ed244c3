package awss3

import (
	"context"
	"strings"
)

// SyncOutcome classifies the result of a sync attempt.
type SyncOutcome int

const (
	// SyncOK: the first sync attempt succeeded.
	SyncOK SyncOutcome = iota
	// SyncOKAfterLogin: the first attempt failed, an SSO re-login ran,
	// and the single retry succeeded.
	SyncOKAfterLogin
	// SyncFailed: sync failed and no further retries will happen.
	SyncFailed
)

// SyncResult carries the outcome of SyncWithRetry plus the diagnostic
// payload a failure needs: the attempted remote URI and the captured
// command output.
type SyncResult struct {
	Outcome   SyncOutcome
	RemoteURI string
	Output    string
}

func (r SyncResult) OK() bool {
	return r.Outcome != SyncFailed
}

// LoginFunc performs an interactive re-authentication. Injected so callers
// can front it with a consent prompt or stub it out in tests.
type LoginFunc func(ctx context.Context) error

// SyncWithRetry runs the mirror sync with the single documented retry: on
// failure, if the local configuration indicates SSO, it invokes login once
// and retries the sync exactly once more. Any further failure is final.
func (c *Client) SyncWithRetry(ctx context.Context, remoteURI, localDir string, login LoginFunc) SyncResult {
	out, err := c.Sync(ctx, remoteURI, localDir)
	if err == nil {
		return SyncResult{Outcome: SyncOK, RemoteURI: remoteURI, Output: out}
	}

	if !c.UsesSSO(ctx) {
		return SyncResult{Outcome: SyncFailed, RemoteURI: remoteURI, Output: out}
	}

	if login == nil {
		login = c.SSOLogin
	}
	if loginErr := login(ctx); loginErr != nil {
		return SyncResult{
			Outcome:   SyncFailed,
			RemoteURI: remoteURI,
			Output:    strings.TrimSpace(out + "\n" + loginErr.Error()),
		}
	}

	out, err = c.Sync(ctx, remoteURI, localDir)
	if err != nil {
		return SyncResult{Outcome: SyncFailed, RemoteURI: remoteURI, Output: out}
	}
	return SyncResult{Outcome: SyncOKAfterLogin, RemoteURI: remoteURI, Output: out}
}
