package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// SignAccount returns the hex HMAC-SHA256 of the decimal account id. The same
// id and secret always produce the same token.
func SignAccount(secret []byte, accountID int64) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(accountID, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyAccount compares token with the expected signature in constant time.
func VerifyAccount(secret []byte, accountID int64, token string) bool {
	expected := SignAccount(secret, accountID)
	return hmac.Equal([]byte(expected), []byte(token))
}
