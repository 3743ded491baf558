package domain

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
)

// steamIDBase is the offset between a 32-bit account id and a 64-bit id.
const steamIDBase = 76561197960265728

// TradeLink is the parsed form of a user supplied trade offer URL.
type TradeLink struct {
	PartnerID uint32
	Token     string
}

// SteamID64 returns the full 64-bit id for the link's partner account.
func (l TradeLink) SteamID64() uint64 {
	return uint64(l.PartnerID) + steamIDBase
}

// ParseTradeLink validates and decomposes a trade offer URL of the form
// https://steamcommunity.com/tradeoffer/new/?partner=NNNN&token=XXXXXXXX.
func ParseTradeLink(raw string) (TradeLink, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return TradeLink{}, apperror.New(apperror.CodeInvalidTradeLink,
			apperror.WithCause(err),
			apperror.WithContext(raw))
	}
	if u.Scheme != "https" || u.Host != "steamcommunity.com" || !strings.HasPrefix(u.Path, "/tradeoffer/new") {
		return TradeLink{}, apperror.New(apperror.CodeInvalidTradeLink,
			apperror.WithMessage("Trade link host or path is not a trade offer URL"),
			apperror.WithContext(raw))
	}

	q := u.Query()
	partner, err := strconv.ParseUint(q.Get("partner"), 10, 32)
	if err != nil || partner == 0 {
		return TradeLink{}, apperror.New(apperror.CodeInvalidTradeLink,
			apperror.WithMessage("Trade link partner id is missing or malformed"),
			apperror.WithContext(raw))
	}

	token := q.Get("token")
	if !validToken(token) {
		return TradeLink{}, apperror.New(apperror.CodeInvalidTradeLink,
			apperror.WithMessage("Trade link token is missing or malformed"),
			apperror.WithContext(raw))
	}

	return TradeLink{PartnerID: uint32(partner), Token: token}, nil
}

func validToken(token string) bool {
	if len(token) != 8 {
		return false
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
