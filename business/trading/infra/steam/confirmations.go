package steam

import (
	"context"
	"strconv"
	"time"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
	"github.com/skinflow/fulfillment-bot/internal/httpclient"
	"github.com/skinflow/fulfillment-bot/internal/logger"
)

// confirmation is one pending mobile confirmation entry.
type confirmation struct {
	ID        string `json:"id"`
	Nonce     string `json:"nonce"`
	CreatorID string `json:"creator_id"` // for trade offers this is the offer id
	Type      int    `json:"type"`
}

type confirmationListResponse struct {
	Success       bool           `json:"success"`
	NeedsAuth     bool           `json:"needauth"`
	Confirmations []confirmation `json:"conf"`
}

// confirmationQuery builds the signed query parameters shared by every
// confirmation endpoint. The key is an HMAC over the current time and the
// operation tag, derived from the identity secret.
func (c *Client) confirmationQuery(tag string) (map[string]string, error) {
	sess, err := c.currentSession()
	if err != nil {
		return nil, err
	}
	now := c.now()
	key, err := GenerateConfirmationKey(c.cfg.IdentitySecret, now, tag)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"p":   c.cfg.DeviceID,
		"a":   strconv.FormatUint(sess.steamID, 10),
		"k":   key,
		"t":   strconv.FormatInt(now.Unix(), 10),
		"m":   "react",
		"tag": tag,
	}, nil
}

// listConfirmations fetches the pending confirmation queue.
func (c *Client) listConfirmations(ctx context.Context) ([]confirmation, error) {
	params, err := c.confirmationQuery("list")
	if err != nil {
		return nil, err
	}

	req := c.community.NewRequest()
	for k, v := range params {
		req.SetQueryParam(k, v)
	}
	var result confirmationListResponse
	req.SetResult(&result)

	resp, err := c.guard(func() (*httpclient.Response, error) {
		return req.Get(ctx, "/mobileconf/getlist")
	})
	if err != nil {
		return nil, wrapSteamErr(err, apperror.CodeConfirmationFailed, "confirmation list request")
	}
	if resp.IsError() || !result.Success {
		return nil, apperror.New(apperror.CodeConfirmationFailed,
			apperror.WithStatusCode(resp.StatusCode))
	}
	return result.Confirmations, nil
}

type confirmationOpResponse struct {
	Success bool `json:"success"`
}

// acceptConfirmation approves a single pending confirmation.
func (c *Client) acceptConfirmation(ctx context.Context, conf confirmation) error {
	params, err := c.confirmationQuery("allow")
	if err != nil {
		return err
	}

	req := c.community.NewRequest().
		SetQueryParam("op", "allow").
		SetQueryParam("cid", conf.ID).
		SetQueryParam("ck", conf.Nonce)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}
	var result confirmationOpResponse
	req.SetResult(&result)

	resp, err := c.guard(func() (*httpclient.Response, error) {
		return req.Get(ctx, "/mobileconf/ajaxop")
	})
	if err != nil {
		return wrapSteamErr(err, apperror.CodeConfirmationFailed, "confirmation accept request")
	}
	if resp.IsError() || !result.Success {
		return apperror.New(apperror.CodeConfirmationFailed,
			apperror.WithContext("confirmation "+conf.ID),
			apperror.WithStatusCode(resp.StatusCode))
	}
	return nil
}

// findConfirmation locates a pending confirmation by the offer that
// created it.
func (c *Client) findConfirmation(ctx context.Context, offerID string) (*confirmation, error) {
	confs, err := c.listConfirmations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range confs {
		if confs[i].CreatorID == offerID {
			return &confs[i], nil
		}
	}
	return nil, nil
}

// PollConfirmer repeatedly lists the confirmation queue until the offer's
// entry appears, then accepts it. This is the workhorse strategy when the
// event stream is quiet or down.
type PollConfirmer struct {
	client   *Client
	attempts int
	backoff  time.Duration
	log      logger.LoggerInterface
}

func NewPollConfirmer(client *Client, attempts int, backoff time.Duration, log logger.LoggerInterface) *PollConfirmer {
	if attempts <= 0 {
		attempts = 1
	}
	return &PollConfirmer{client: client, attempts: attempts, backoff: backoff, log: log}
}

func (p *PollConfirmer) Name() string { return "poll" }

func (p *PollConfirmer) Confirm(ctx context.Context, offerID string) error {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		conf, err := p.client.findConfirmation(ctx, offerID)
		if err != nil {
			lastErr = err
		} else if conf != nil {
			return p.client.acceptConfirmation(ctx, *conf)
		} else {
			lastErr = apperror.New(apperror.CodeConfirmationFailed,
				apperror.WithMessage("Confirmation not yet listed"),
				apperror.WithContext("offer "+offerID))
		}

		if attempt < p.attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.delay(attempt)):
			}
		}
	}
	return lastErr
}

// delay grows linearly with the attempt: fresh offers usually list within
// a poll or two, stragglers get probed less often.
func (p *PollConfirmer) delay(attempt int) time.Duration {
	return p.backoff * time.Duration(attempt)
}

// DirectKeyConfirmer skips the list step entirely: it asks the details
// endpoint for the offer's confirmation using a "details" key and accepts
// it in one round trip. Fast when it works, but the endpoint is flaky for
// fresh offers, so it runs as a fallback strategy.
type DirectKeyConfirmer struct {
	client *Client
}

func NewDirectKeyConfirmer(client *Client) *DirectKeyConfirmer {
	return &DirectKeyConfirmer{client: client}
}

func (d *DirectKeyConfirmer) Name() string { return "direct-key" }

type confirmationDetailsResponse struct {
	Success      bool         `json:"success"`
	Confirmation confirmation `json:"confirmation"`
}

func (d *DirectKeyConfirmer) Confirm(ctx context.Context, offerID string) error {
	params, err := d.client.confirmationQuery("details")
	if err != nil {
		return err
	}

	req := d.client.community.NewRequest().
		SetQueryParam("creator_id", offerID)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}
	var result confirmationDetailsResponse
	req.SetResult(&result)

	resp, err := d.client.guard(func() (*httpclient.Response, error) {
		return req.Get(ctx, "/mobileconf/details")
	})
	if err != nil {
		return wrapSteamErr(err, apperror.CodeConfirmationFailed, "confirmation details request")
	}
	if resp.IsError() || !result.Success || result.Confirmation.ID == "" {
		return apperror.New(apperror.CodeConfirmationFailed,
			apperror.WithMessage("Details lookup returned no confirmation"),
			apperror.WithContext("offer "+offerID),
			apperror.WithStatusCode(resp.StatusCode))
	}
	return d.client.acceptConfirmation(ctx, result.Confirmation)
}
