package memengine_test

import "encoding/hex"

func byteKeyHex(b byte) string {
	return hex.EncodeToString([]byte{b})
}

func hexStringPtr(s string) *string {
	v := hex.EncodeToString([]byte(s))
	return &v
}
