package lobby

import (
    "crypto/rand"
    "math/big"
    "strings"
)

const (
    // codeAlphabet omits I, O, 0 and 1.
    codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
    codeLength   = 4
)

// CodeFunc produces candidate room codes.
type CodeFunc func() (string, error)

// GenerateCode returns a 4-character room code drawn uniformly from the
// alphabet with crypto/rand.
func GenerateCode() (string, error) {
    b := make([]byte, codeLength)
    max := big.NewInt(int64(len(codeAlphabet)))
    for i := range b {
        n, err := rand.Int(rand.Reader, max)
        if err != nil { return "", err }
        b[i] = codeAlphabet[n.Int64()]
    }
    return string(b), nil
}

// ValidCode reports whether s is a well-formed room code.
func ValidCode(s string) bool {
    if len(s) != codeLength { return false }
    for i := 0; i < len(s); i++ {
        if strings.IndexByte(codeAlphabet, s[i]) < 0 { return false }
    }
    return true
}
