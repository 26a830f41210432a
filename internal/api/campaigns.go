package api

import (
	"context"
	"fmt"

	"github.com/nhle/coffeemeet/internal/model"
)

// CampaignPage is one page of the campaign history list.
type CampaignPage struct {
	Items []model.Campaign
	Total int
	Page  int

	// HasMore is the server's pagination flag, nil when absent.
	HasMore *bool
}

// ListCampaigns retrieves one page of the caller's campaigns,
// newest first.
func (c *Client) ListCampaigns(
	ctx context.Context,
	page, limit int,
) (*CampaignPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var resp campaignListResponse
	path := fmt.Sprintf("/campaigns/?page=%d&limit=%d", page, limit)
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}

	items := make([]model.Campaign, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, model.Campaign{
			ID:           r.ID,
			Name:         r.Name,
			Status:       r.Status,
			Participants: r.Participants,
			CreatedAt:    r.CreatedAt,
		})
	}

	respPage := resp.Page
	if respPage == 0 {
		respPage = page
	}

	return &CampaignPage{
		Items:   items,
		Total:   resp.Count,
		Page:    respPage,
		HasMore: resp.HasMore,
	}, nil
}
