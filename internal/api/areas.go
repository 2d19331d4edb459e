package api

import (
	"context"
	"fmt"
)

// About fetches the capability catalog document. This endpoint is public;
// no session credential is required.
func (c *Client) About(ctx context.Context) (*AboutResponse, error) {
	var resp AboutResponse
	if err := c.Get(ctx, "core/about.json", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch capability catalog: %w", err)
	}
	return &resp, nil
}

// CreateArea creates a new automation rule.
func (c *Client) CreateArea(ctx context.Context, req CreateAreaRequest) (*Area, error) {
	var area Area
	if err := c.Post(ctx, "areas/", req, &area); err != nil {
		return nil, err
	}
	return &area, nil
}

// ListAreas returns the user's automation rules.
func (c *Client) ListAreas(ctx context.Context) ([]Area, error) {
	var areas []Area
	if err := c.Get(ctx, "areas/", &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// GetArea returns one automation rule by ID.
func (c *Client) GetArea(ctx context.Context, areaID string) (*Area, error) {
	var area Area
	if err := c.Get(ctx, fmt.Sprintf("areas/%s/", areaID), &area); err != nil {
		return nil, err
	}
	return &area, nil
}

// UpdateArea replaces an automation rule.
func (c *Client) UpdateArea(ctx context.Context, areaID string, req CreateAreaRequest) (*Area, error) {
	var area Area
	if err := c.Put(ctx, fmt.Sprintf("areas/%s/", areaID), req, &area); err != nil {
		return nil, err
	}
	return &area, nil
}

// DeleteArea removes an automation rule.
func (c *Client) DeleteArea(ctx context.Context, areaID string) error {
	return c.Delete(ctx, fmt.Sprintf("areas/%s/", areaID))
}

// AreaHistory returns the execution history of an automation rule.
func (c *Client) AreaHistory(ctx context.Context, areaID string) ([]HistoryEntry, error) {
	var history []HistoryEntry
	if err := c.Get(ctx, fmt.Sprintf("areas/%s/history/", areaID), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// AreaStatistics returns global statistics over the user's automation
// rules.
func (c *Client) AreaStatistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics
	if err := c.Get(ctx, "areas/statistics/", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ToggleAreaActive flips an automation rule between active and paused.
func (c *Client) ToggleAreaActive(ctx context.Context, areaID string) error {
	return c.Post(ctx, fmt.Sprintf("areas/%s/toggle_active/", areaID), nil, nil)
}
