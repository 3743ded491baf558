package steam

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
)

type loginResponse struct {
	Success      bool   `json:"success"`
	Throttled    bool   `json:"throttled"`
	RequiresTOTP bool   `json:"requires_twofactor"`
	Message      string `json:"message"`
	SessionID    string `json:"session_id"`
	AccessToken  string `json:"access_token"`
	SteamID      string `json:"steamid"`
}

// Login authenticates against the network using account credentials plus a
// freshly derived two-factor code. The server throttles accounts that log
// in too often; that case is surfaced with its own code so callers can
// back off instead of giving up.
func (c *Client) Login(ctx context.Context) error {
	code, err := GenerateAuthCode(c.cfg.SharedSecret, c.now())
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("account_name", c.cfg.AccountName)
	form.Set("password", c.cfg.Password)
	form.Set("twofactorcode", code)

	var result loginResponse
	resp, err := c.api.NewRequest().
		SetForm(form).
		SetResult(&result).
		Post(ctx, "/ISteamUserAuth/AuthenticateUser/v1/")
	if err != nil {
		return wrapSteamErr(err, apperror.CodeSteamAPIError, "login request")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || result.Throttled:
		return apperror.New(apperror.CodeSteamLoginThrottled,
			apperror.WithContext(result.Message))
	case resp.IsError() || !result.Success:
		return apperror.New(apperror.CodeSteamLoginFailed,
			apperror.WithContext(result.Message),
			apperror.WithStatusCode(resp.StatusCode))
	}

	steamID, err := strconv.ParseUint(result.SteamID, 10, 64)
	if err != nil {
		return apperror.New(apperror.CodeSteamLoginFailed,
			apperror.WithMessage("Login response carried a malformed steam id"),
			apperror.WithCause(err))
	}

	c.mu.Lock()
	c.session = &session{
		id:          result.SessionID,
		accessToken: result.AccessToken,
		steamID:     steamID,
	}
	c.mu.Unlock()

	c.log.Info(ctx, "session established", "account", c.cfg.AccountName)
	return nil
}

type accountStateResponse struct {
	TradeBanned    bool   `json:"trade_banned"`
	EscrowDays     int    `json:"escrow_days"`
	Limited        bool   `json:"limited"`
	LockDescriptor string `json:"lock_descriptor"`
}

// CanTrade verifies the logged-in account is actually able to send trade
// offers. A trade ban or account lock means the source is useless until an
// operator intervenes.
func (c *Client) CanTrade(ctx context.Context) error {
	sess, err := c.currentSession()
	if err != nil {
		return err
	}

	var state accountStateResponse
	_, err = c.api.NewRequest().
		SetQueryParam("steamid", strconv.FormatUint(sess.steamID, 10)).
		SetQueryParam("access_token", sess.accessToken).
		SetResult(&state).
		Get(ctx, "/IEconService/GetTradeHoldDurations/v1/")
	if err != nil {
		return wrapSteamErr(err, apperror.CodeSteamAPIError, "account state request")
	}

	if state.TradeBanned || state.LockDescriptor != "" {
		return apperror.New(apperror.CodeSteamTradeBanned,
			apperror.WithContext(state.LockDescriptor))
	}
	return nil
}
