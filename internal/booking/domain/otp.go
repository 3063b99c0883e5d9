package domain

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
)

// GenerateOTP returns a 4-digit numeric code used for rider/driver pickup
// verification. Codes are generated independently per booking; collisions
// across bookings are acceptable, this is not a security token.
func GenerateOTP() string {
	var b [2]byte
	rand.Read(b[:])
	n := int(binary.BigEndian.Uint16(b[:]))%9000 + 1000
	return strconv.Itoa(n)
}
