package kiosk

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashPin derives the stored hash for a kiosk PIN. The scoreboard id is
// mixed in so equal PINs on different boards hash differently.
func HashPin(secret, scoreboardID, pin string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(scoreboardID))
	mac.Write([]byte{0})
	mac.Write([]byte(pin))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPin checks a submitted PIN against the stored hash in constant
// time.
func VerifyPin(secret, scoreboardID, pin, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return hmac.Equal([]byte(HashPin(secret, scoreboardID, pin)), []byte(storedHash))
}
