package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"sort"
)

// ComputeSignature computes the X-Twilio-Signature value for a webhook
// request: base64(HMAC-SHA1(authToken, requestURL + sorted(key+value))).
func ComputeSignature(authToken, requestURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(requestURL))
	for _, key := range keys {
		for _, value := range params[key] {
			mac.Write([]byte(key))
			mac.Write([]byte(value))
		}
	}
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidateSignature reports whether the signature header matches the
// request URL and form parameters under the account's auth token.
func ValidateSignature(authToken, requestURL string, params url.Values, signature string) bool {
	expected := ComputeSignature(authToken, requestURL, params)
	return hmac.Equal([]byte(expected), []byte(signature))
}
