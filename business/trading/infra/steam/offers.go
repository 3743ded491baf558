package steam

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/skinflow/fulfillment-bot/business/trading/domain"
	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/httpclient"
)

type offerAsset struct {
	AppID     int    `json:"appid"`
	ContextID string `json:"contextid"`
	Amount    int    `json:"amount"`
	AssetID   string `json:"assetid"`
}

type offerPayload struct {
	NewVersion bool `json:"newversion"`
	Version    int  `json:"version"`
	Me         struct {
		Assets []offerAsset `json:"assets"`
	} `json:"me"`
	Them struct {
		Assets []offerAsset `json:"assets"`
	} `json:"them"`
}

type sendOfferResponse struct {
	OfferID      string `json:"tradeofferid"`
	EResult      int    `json:"eresult"`
	ErrorMessage string `json:"strError"`
}

// SendOffer submits a one-sided trade offer for the given assets to the
// partner behind the trade link. Protocol result codes map to error codes
// through eresultError, which decides downstream retry policy.
func (c *Client) SendOffer(ctx context.Context, link domain.TradeLink, assetIDs []string, message string) (string, error) {
	sess, err := c.currentSession()
	if err != nil {
		return "", err
	}

	var payload offerPayload
	payload.NewVersion = true
	payload.Version = 2
	for _, id := range assetIDs {
		payload.Me.Assets = append(payload.Me.Assets, offerAsset{
			AppID:     c.cfg.AppID,
			ContextID: c.contextIDString(),
			Amount:    1,
			AssetID:   id,
		})
	}
	offerJSON, err := json.Marshal(payload)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeInternalError, "encoding offer payload")
	}

	form := url.Values{}
	form.Set("sessionid", sess.id)
	form.Set("serverid", "1")
	form.Set("partner", strconv.FormatUint(link.SteamID64(), 10))
	form.Set("tradeoffermessage", message)
	form.Set("json_tradeoffer", string(offerJSON))
	form.Set("trade_offer_create_params", `{"trade_offer_access_token":"`+link.Token+`"}`)

	var result sendOfferResponse
	resp, err := c.guard(func() (*httpclient.Response, error) {
		return c.community.NewRequest().
			SetForm(form).
			SetHeader("Referer", c.cfg.CommunityURL+"/tradeoffer/new/").
			SetResult(&result).
			Post(ctx, "/tradeoffer/new/send")
	})
	if err != nil {
		return "", wrapSteamErr(err, apperror.CodeOfferSendFailed, "offer submit")
	}
	if resp.IsError() || result.OfferID == "" {
		return "", eresultError(result.EResult, result.ErrorMessage, resp.StatusCode)
	}

	c.log.Info(ctx, "trade offer sent",
		"offer_id", result.OfferID, "partner", link.PartnerID, "assets", len(assetIDs))
	return result.OfferID, nil
}

type offerStateResponse struct {
	Offer struct {
		OfferID string `json:"tradeofferid"`
		State   int    `json:"trade_offer_state"`
	} `json:"offer"`
}

// Trade offer protocol states.
const (
	stateActive          = 2
	stateAccepted        = 3
	stateCountered       = 4
	stateExpired         = 5
	stateCanceled        = 6
	stateDeclined        = 7
	stateInvalidItems    = 8
	stateNeedsConfirm    = 9
	stateCanceledByOwner = 10
	stateInEscrow        = 11
)

// OfferState resolves a sent offer to its current lifecycle state.
func (c *Client) OfferState(ctx context.Context, offerID string) (domain.OfferState, error) {
	sess, err := c.currentSession()
	if err != nil {
		return "", err
	}

	var result offerStateResponse
	resp, err := c.api.NewRequest().
		SetQueryParam("access_token", sess.accessToken).
		SetQueryParam("tradeofferid", offerID).
		SetResult(&result).
		Get(ctx, "/IEconService/GetTradeOffer/v1/")
	if err != nil {
		return "", wrapSteamErr(err, apperror.CodeSteamAPIError, "offer state request")
	}
	if resp.IsError() || result.Offer.OfferID == "" {
		return "", apperror.New(apperror.CodeOfferNotFound,
			apperror.WithContext(offerID),
			apperror.WithStatusCode(resp.StatusCode))
	}

	switch result.Offer.State {
	case stateAccepted:
		return domain.OfferAccepted, nil
	case stateDeclined, stateCountered, stateInvalidItems:
		return domain.OfferDeclined, nil
	case stateExpired, stateCanceled, stateCanceledByOwner:
		return domain.OfferExpired, nil
	case stateActive, stateNeedsConfirm, stateInEscrow:
		return domain.OfferPending, nil
	default:
		return domain.OfferPending, nil
	}
}

// CancelOffer withdraws a pending offer we created.
func (c *Client) CancelOffer(ctx context.Context, offerID string) error {
	sess, err := c.currentSession()
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("access_token", sess.accessToken)
	form.Set("tradeofferid", offerID)

	resp, err := c.api.NewRequest().
		SetForm(form).
		Post(ctx, "/IEconService/CancelTradeOffer/v1/")
	if err != nil {
		return wrapSteamErr(err, apperror.CodeSteamAPIError, "offer cancel request")
	}
	if resp.IsError() {
		return apperror.New(apperror.CodeSteamAPIError,
			apperror.WithContext(offerID),
			apperror.WithStatusCode(resp.StatusCode))
	}
	return nil
}
