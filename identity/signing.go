package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// SignInitData attaches the hash Telegram would compute for values and returns
// the encoded init data string. The data-check string is built the way
// bot.ValidateWebappRequest rebuilds it. Used by tests and local tooling.
func SignInitData(values url.Values, botToken string) string {
	signed := url.Values{}
	lines := make([]string, 0, len(values))
	for k, v := range values {
		if k == "hash" || len(v) == 0 {
			continue
		}
		signed.Set(k, v[0])
		unescaped, _ := url.QueryUnescape(v[0])
		lines = append(lines, k+"="+unescaped)
	}
	sort.Strings(lines)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))

	signed.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return signed.Encode()
}
