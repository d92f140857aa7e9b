package identity

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	tgbot "github.com/go-telegram/bot"
)

var (
	ErrInvalidInitData = errors.New("invalid init data")
	ErrInitDataExpired = errors.New("init data expired")
)

// InitData is the verified content of a Mini App launch.
type InitData struct {
	Identity Identity
	AuthDate time.Time
	QueryID  string
}

// VerifyInitData checks the HMAC Telegram attaches to Mini App init data and
// returns the identity inside it. maxAge of zero disables the freshness check.
func VerifyInitData(initData, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	if botToken == "" {
		return nil, fmt.Errorf("%w: bot token not configured", ErrInvalidInitData)
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}
	if values.Get("hash") == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}
	authRaw := values.Get("auth_date")
	queryID := values.Get("query_id")

	// ValidateWebappRequest consumes the hash from the map it is given.
	u, ok := tgbot.ValidateWebappRequest(cloneValues(values), botToken)
	if !ok {
		return nil, fmt.Errorf("%w: signature mismatch", ErrInvalidInitData)
	}

	authUnix, err := strconv.ParseInt(authRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad auth_date", ErrInvalidInitData)
	}
	authDate := time.Unix(authUnix, 0)
	if maxAge > 0 && now.Sub(authDate) > maxAge {
		return nil, ErrInitDataExpired
	}

	if u == nil || u.ID == 0 {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInitData)
	}

	return &InitData{
		Identity: Identity{
			TelegramID: u.ID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Username:   u.Username,
			PhotoURL:   u.PhotoURL,
		},
		AuthDate: authDate,
		QueryID:  queryID,
	}, nil
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	return out
}
