package domain

import (
	"testing"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
)

func TestParseTradeLink(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantPartner uint32
		wantToken   string
		wantErr     bool
	}{
		{
			name:        "valid_link",
			raw:         "https://steamcommunity.com/tradeoffer/new/?partner=123456&token=AbCd12_-",
			wantPartner: 123456,
			wantToken:   "AbCd12_-",
		},
		{
			name:        "valid_link_with_whitespace",
			raw:         "  https://steamcommunity.com/tradeoffer/new/?partner=42&token=aaaaaaaa  ",
			wantPartner: 42,
			wantToken:   "aaaaaaaa",
		},
		{
			name:    "http_scheme_rejected",
			raw:     "http://steamcommunity.com/tradeoffer/new/?partner=123456&token=AbCd12_-",
			wantErr: true,
		},
		{
			name:    "wrong_host",
			raw:     "https://example.com/tradeoffer/new/?partner=123456&token=AbCd12_-",
			wantErr: true,
		},
		{
			name:    "wrong_path",
			raw:     "https://steamcommunity.com/id/someuser?partner=123456&token=AbCd12_-",
			wantErr: true,
		},
		{
			name:    "missing_partner",
			raw:     "https://steamcommunity.com/tradeoffer/new/?token=AbCd12_-",
			wantErr: true,
		},
		{
			name:    "zero_partner",
			raw:     "https://steamcommunity.com/tradeoffer/new/?partner=0&token=AbCd12_-",
			wantErr: true,
		},
		{
			name:    "partner_overflows_uint32",
			raw:     "https://steamcommunity.com/tradeoffer/new/?partner=99999999999&token=AbCd12_-",
			wantErr: true,
		},
		{
			name:    "token_too_short",
			raw:     "https://steamcommunity.com/tradeoffer/new/?partner=123456&token=abc",
			wantErr: true,
		},
		{
			name:    "token_bad_characters",
			raw:     "https://steamcommunity.com/tradeoffer/new/?partner=123456&token=AbCd12!?",
			wantErr: true,
		},
		{
			name:    "missing_token",
			raw:     "https://steamcommunity.com/tradeoffer/new/?partner=123456",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := ParseTradeLink(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", link)
				}
				if apperror.GetCode(err) != apperror.CodeInvalidTradeLink {
					t.Errorf("error code = %s, want %s", apperror.GetCode(err), apperror.CodeInvalidTradeLink)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if link.PartnerID != tt.wantPartner {
				t.Errorf("PartnerID = %d, want %d", link.PartnerID, tt.wantPartner)
			}
			if link.Token != tt.wantToken {
				t.Errorf("Token = %q, want %q", link.Token, tt.wantToken)
			}
		})
	}
}

func TestTradeLink_SteamID64(t *testing.T) {
	link := TradeLink{PartnerID: 1}
	if got := link.SteamID64(); got != 76561197960265729 {
		t.Errorf("SteamID64 = %d, want 76561197960265729", got)
	}
}
