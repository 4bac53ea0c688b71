package krakenclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"strconv"
)

// sign computes the API-Sign header for a private call:
// base64(HMAC-SHA512(secret, path + SHA256(nonce + postData))).
func sign(secret []byte, path string, nonce uint64, postData string) string {
	digest := sha256.Sum256([]byte(strconv.FormatUint(nonce, 10) + postData))

	mac := hmac.New(sha512.New, secret)
	_, _ = mac.Write([]byte(path))
	_, _ = mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
