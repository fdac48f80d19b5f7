package env

import (
	"regexp"
	"strings"
)

var (
	ethAddressPattern = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")
	privateKeyPattern = regexp.MustCompile("^(0x)?[0-9a-fA-F]{64}$")
	hashPattern       = regexp.MustCompile("^0x[0-9a-fA-F]{64}$")
)

func IsEmpty(value string) bool {
	return value == ""
}

// Ethereum address
func IsValidEthAddress(address string) bool {
	return ethAddressPattern.MatchString(address)
}

// ECDSA private key, with or without 0x prefix
func IsValidPrivateKey(privateKey string) bool {
	return privateKeyPattern.MatchString(privateKey)
}

// 32-byte hash digest
func IsValidHash(hash string) bool {
	return hashPattern.MatchString(hash)
}

// RPC endpoint URL
func IsValidRPCURL(url string, schemes ...string) bool {
	if url == "" {
		return false
	}
	for _, scheme := range schemes {
		if strings.HasPrefix(url, scheme+"://") && len(url) > len(scheme)+3 {
			return true
		}
	}
	return false
}
