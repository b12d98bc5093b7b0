package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// digest computes HMAC(salt, YYYY-MM-DD) for deterministic daily selection.
func digest(date time.Time, salt string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	return h.Sum(nil)
}

// VariantIndex returns a deterministic preset index for a date using
// HMAC(salt, YYYY-MM-DD) % presetCount.
func VariantIndex(date time.Time, salt string, presetCount int) int {
	if presetCount <= 0 {
		return 0
	}
	sum := digest(date, salt)
	n := binary.BigEndian.Uint64(sum[:8])
	return int(n % uint64(presetCount))
}

// Seed returns the deterministic board seed for a date, drawn from a
// different region of the digest than VariantIndex so the two do not
// correlate.
func Seed(date time.Time, salt string) int64 {
	sum := digest(date, salt)
	return int64(binary.BigEndian.Uint64(sum[8:16]) &^ (1 << 63))
}
