package sync

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Notice is a non-fatal, user-facing sync outcome. Failures never block
// local operation; the local store stays the durable source of truth.
type Notice struct {
	Kind    string `json:"kind"` // "synced" or "sync_failed"
	Message string `json:"message"`
}

const (
	NoticeSynced = "synced"
	NoticeFailed = "sync_failed"
)

// Coordinator reconciles local state with the remote blob. One debounced
// push timer is live at a time; a new change cancels and reschedules it.
// Remote changes are only pulled at token activation, never live-merged:
// the most recent whole-document write wins.
type Coordinator struct {
	local    Local
	remote   Remote
	logger   *slog.Logger
	debounce time.Duration
	onNotice func(Notice)

	mu         sync.Mutex
	token      string
	lastSynced string
	timer      *time.Timer
	closed     bool
}

type Option func(*Coordinator)

// WithDebounce overrides the push quiet window (default 2 s).
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.debounce = d }
}

// WithNotice registers the callback for user-facing sync notices. It runs
// on the coordinator's goroutines and must not block.
func WithNotice(fn func(Notice)) Option {
	return func(c *Coordinator) { c.onNotice = fn }
}

func New(local Local, remote Remote, logger *slog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		local:    local,
		remote:   remote,
		logger:   logger,
		debounce: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) notify(n Notice) {
	if c.onNotice != nil {
		c.onNotice(n)
	}
}

func encode(s State) (string, bool) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// Activate sets the sync token and performs the one-time reconciliation:
// if remote state exists it is authoritative and overwrites local state;
// otherwise the remote is seeded from local. An empty token disables sync
// and cancels any pending push. All failures are non-fatal.
func (c *Coordinator) Activate(ctx context.Context, token string) {
	token = strings.TrimSpace(token)

	c.mu.Lock()
	c.token = token
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	if token == "" {
		return
	}

	remoteState, err := c.remote.Fetch(ctx, token)
	if err != nil {
		c.logger.Warn("sync fetch failed", "error", err)
		c.notify(Notice{Kind: NoticeFailed, Message: "Could not reach sync server"})
		return
	}

	if remoteState != nil {
		// Remote wins entirely; set the synced marker before applying so
		// the apply-triggered change notifications flush as a no-op.
		if raw, ok := encode(*remoteState); ok {
			c.setLastSynced(raw)
		}
		if err := c.local.Apply(ctx, *remoteState); err != nil {
			c.logger.Error("applying remote state failed", "error", err)
			c.notify(Notice{Kind: NoticeFailed, Message: "Could not apply synced state"})
			return
		}
		c.logger.Info("synced from remote", "token_set", true)
		c.notify(Notice{Kind: NoticeSynced, Message: "Synced from remote"})
		return
	}

	// No remote state yet: seed it from local.
	local, err := c.local.Snapshot(ctx)
	if err != nil {
		c.logger.Error("snapshotting local state failed", "error", err)
		return
	}
	raw, ok := encode(local)
	if !ok {
		return
	}
	if err := c.remote.Push(ctx, token, local); err != nil {
		c.logger.Warn("seeding remote state failed", "error", err)
		c.notify(Notice{Kind: NoticeFailed, Message: "Could not push state to sync server"})
		return
	}
	c.setLastSynced(raw)
	c.notify(Notice{Kind: NoticeSynced, Message: "Remote seeded from this device"})
}

func (c *Coordinator) setLastSynced(raw string) {
	c.mu.Lock()
	c.lastSynced = raw
	c.mu.Unlock()
}

// Changed schedules a debounced push. Called after every local mutation;
// rapid bursts coalesce into a single push once the quiet window elapses.
func (c *Coordinator) Changed() {
	c.mu.Lock()
	if c.token == "" || c.closed {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.Flush(context.Background())
	})
	c.mu.Unlock()
}

// Flush pushes the current local state now if it differs from the last
// synced snapshot. Returns whether a push happened.
func (c *Coordinator) Flush(ctx context.Context) bool {
	c.mu.Lock()
	token, last := c.token, c.lastSynced
	c.mu.Unlock()
	if token == "" {
		return false
	}

	local, err := c.local.Snapshot(ctx)
	if err != nil {
		c.logger.Error("snapshotting local state failed", "error", err)
		return false
	}
	raw, ok := encode(local)
	if !ok || raw == last {
		return false
	}

	if err := c.remote.Push(ctx, token, local); err != nil {
		// No retry loop: the next change or activation pushes again.
		c.logger.Warn("sync push failed", "error", err)
		c.notify(Notice{Kind: NoticeFailed, Message: "Could not push state to sync server"})
		return false
	}
	c.setLastSynced(raw)
	return true
}

// Close cancels any pending push. The coordinator stays safe to call but
// schedules nothing further.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
