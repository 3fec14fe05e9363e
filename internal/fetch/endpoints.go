package fetch

import (
	"context"
	"fmt"
)

// Cache paths shared with the catalog watcher.
const (
	BootstrapDir     = "bootstrap"
	BootstrapFile    = "bootstrap-static.json"
	FixturesFile     = "fixtures.json"
	BootstrapRelPath = BootstrapDir + "/" + BootstrapFile
	FixturesRelPath  = BootstrapDir + "/" + FixturesFile
)

// /bootstrap-static/
func (c *Client) BootstrapStatic(ctx context.Context, force bool) ([]byte, error) {
	return c.FetchRaw(ctx, "/bootstrap-static/", BootstrapRelPath, force)
}

// /fixtures/?future=1
func (c *Client) Fixtures(ctx context.Context, force bool) ([]byte, error) {
	return c.FetchRaw(ctx, "/fixtures/?future=1", FixturesRelPath, force)
}

// /entry/{entry_id}/
func (c *Client) Entry(ctx context.Context, entryID int, force bool) ([]byte, error) {
	return c.FetchRaw(ctx,
		fmt.Sprintf("/entry/%d/", entryID),
		EntryRelPath(entryID),
		force,
	)
}

// /entry/{entry_id}/event/{gw}/picks/
func (c *Client) EntryPicks(ctx context.Context, entryID int, gw int, force bool) ([]byte, error) {
	return c.FetchRaw(ctx,
		fmt.Sprintf("/entry/%d/event/%d/picks/", entryID, gw),
		EntryPicksRelPath(entryID, gw),
		force,
	)
}

// /my-team/{entry_id}/ needs the manager's session cookie and is never
// served from cache.
func (c *Client) MyTeam(ctx context.Context, entryID int) ([]byte, error) {
	if c.Cookie == "" {
		return nil, fmt.Errorf("my-team %d: no auth cookie configured", entryID)
	}
	return c.fetch(ctx,
		fmt.Sprintf("/my-team/%d/", entryID),
		fmt.Sprintf("entry/%d/my-team.json", entryID),
		true, true,
	)
}

func EntryRelPath(entryID int) string {
	return fmt.Sprintf("entry/%d/entry.json", entryID)
}

func EntryPicksRelPath(entryID int, gw int) string {
	return fmt.Sprintf("entry/%d/gw/%d/picks.json", entryID, gw)
}
