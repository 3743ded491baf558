package steam

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"time"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
)

// authCodeChars is the alphabet used for two-factor login codes. It omits
// visually ambiguous characters.
const authCodeChars = "23456789BCDFGHJKMNPQRTVWXY"

const authCodePeriod = 30 // seconds per code window

// GenerateAuthCode derives the 5 character two-factor login code from the
// base64 encoded shared secret for the given moment.
func GenerateAuthCode(sharedSecret string, t time.Time) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(sharedSecret)
	if err != nil {
		return "", apperror.New(apperror.CodeSteamLoginFailed,
			apperror.WithMessage("Shared secret is not valid base64"),
			apperror.WithCause(err))
	}

	var window [8]byte
	binary.BigEndian.PutUint64(window[:], uint64(t.Unix()/authCodePeriod))

	mac := hmac.New(sha1.New, secret)
	mac.Write(window[:])
	digest := mac.Sum(nil)

	start := digest[19] & 0x0f
	code := binary.BigEndian.Uint32(digest[start:start+4]) & 0x7fffffff

	out := make([]byte, 5)
	for i := range out {
		out[i] = authCodeChars[code%uint32(len(authCodeChars))]
		code /= uint32(len(authCodeChars))
	}
	return string(out), nil
}

// GenerateConfirmationKey derives the base64 HMAC key that authorizes a
// mobile confirmation operation. The tag names the operation, for example
// "list", "details" or "allow".
func GenerateConfirmationKey(identitySecret string, t time.Time, tag string) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(identitySecret)
	if err != nil {
		return "", apperror.New(apperror.CodeConfirmationFailed,
			apperror.WithMessage("Identity secret is not valid base64"),
			apperror.WithCause(err))
	}

	payload := make([]byte, 8, 8+len(tag))
	binary.BigEndian.PutUint64(payload, uint64(t.Unix()))
	payload = append(payload, tag...)

	mac := hmac.New(sha1.New, secret)
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
