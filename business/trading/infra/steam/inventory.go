package steam

import (
	"context"
	"fmt"
	"strconv"

	"github.com/skinflow/fulfillment-bot/business/trading/domain"
	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/httpclient"
)

type inventoryAsset struct {
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
}

type inventoryDescription struct {
	ClassID        string `json:"classid"`
	InstanceID     string `json:"instanceid"`
	MarketHashName string `json:"market_hash_name"`
	Tradable       int    `json:"tradable"`
}

type inventoryResponse struct {
	Assets       []inventoryAsset       `json:"assets"`
	Descriptions []inventoryDescription `json:"descriptions"`
	Success      int                    `json:"success"`
	LastAssetID  string                 `json:"last_assetid"`
	MoreItems    int                    `json:"more_items"`
}

// Inventory fetches the bot's full inventory for the configured app and
// context, following pagination. Assets are joined with their descriptions
// to resolve market hash names and tradability.
func (c *Client) Inventory(ctx context.Context) ([]domain.Asset, error) {
	sess, err := c.currentSession()
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/inventory/%d/%d/%d", sess.steamID, c.cfg.AppID, c.cfg.ContextID)

	var assets []domain.Asset
	startAssetID := ""
	for {
		var page inventoryResponse
		req := c.community.NewRequest().
			SetQueryParam("count", "2000").
			SetResult(&page)
		if startAssetID != "" {
			req.SetQueryParam("start_assetid", startAssetID)
		}

		resp, err := c.guard(func() (*httpclient.Response, error) {
			return req.Get(ctx, path)
		})
		if err != nil {
			return nil, wrapSteamErr(err, apperror.CodeSteamInventoryError, "inventory request")
		}
		if resp.IsError() || page.Success != 1 {
			return nil, apperror.New(apperror.CodeSteamInventoryError,
				apperror.WithStatusCode(resp.StatusCode))
		}

		assets = append(assets, joinDescriptions(page)...)

		if page.MoreItems != 1 || page.LastAssetID == "" {
			return assets, nil
		}
		startAssetID = page.LastAssetID
	}
}

func joinDescriptions(page inventoryResponse) []domain.Asset {
	type classKey struct{ classID, instanceID string }
	descs := make(map[classKey]inventoryDescription, len(page.Descriptions))
	for _, d := range page.Descriptions {
		descs[classKey{d.ClassID, d.InstanceID}] = d
	}

	out := make([]domain.Asset, 0, len(page.Assets))
	for _, a := range page.Assets {
		d, ok := descs[classKey{a.ClassID, a.InstanceID}]
		if !ok {
			continue
		}
		out = append(out, domain.Asset{
			AssetID:        a.AssetID,
			ClassID:        a.ClassID,
			InstanceID:     a.InstanceID,
			MarketHashName: d.MarketHashName,
			Tradable:       d.Tradable == 1,
		})
	}
	return out
}

func (c *Client) contextIDString() string {
	return strconv.Itoa(c.cfg.ContextID)
}
