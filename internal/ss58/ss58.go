// Package ss58 validates Substrate SS58 account addresses.
package ss58

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	accountIDLen = 32
	checksumLen  = 2
)

var checksumPrefix = []byte("SS58PRE")

// ErrInvalidAddress is returned for anything that is not a checksummed
// 32-byte account address.
var ErrInvalidAddress = errors.New("invalid ss58 address")

// Decode returns the network prefix and account id of address.
func Decode(address string) (uint16, []byte, error) {
	data, err := base58.Decode(address)
	if err != nil || len(data) == 0 {
		return 0, nil, fmt.Errorf("%w: not base58", ErrInvalidAddress)
	}

	var prefix uint16
	prefixLen := 1
	switch {
	case data[0] < 64:
		prefix = uint16(data[0])
	case data[0] < 128:
		if len(data) < 2 {
			return 0, nil, fmt.Errorf("%w: truncated prefix", ErrInvalidAddress)
		}
		lower := (data[0]&0x3f)<<2 | data[1]>>6
		upper := data[1] & 0x3f
		prefix = uint16(lower) | uint16(upper)<<8
		prefixLen = 2
	default:
		return 0, nil, fmt.Errorf("%w: reserved prefix %d", ErrInvalidAddress, data[0])
	}

	if len(data) != prefixLen+accountIDLen+checksumLen {
		return 0, nil, fmt.Errorf("%w: length %d", ErrInvalidAddress, len(data))
	}

	body := data[:prefixLen+accountIDLen]
	sum := checksum(body)
	if !bytes.Equal(sum[:checksumLen], data[prefixLen+accountIDLen:]) {
		return 0, nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}

	return prefix, data[prefixLen : prefixLen+accountIDLen], nil
}

// Valid reports whether address is a well-formed SS58 account address.
func Valid(address string) bool {
	_, _, err := Decode(address)
	return err == nil
}

// Encode encodes a 32-byte account id under prefix.
func Encode(prefix uint16, accountID []byte) (string, error) {
	if len(accountID) != accountIDLen {
		return "", fmt.Errorf("%w: account id length %d", ErrInvalidAddress, len(accountID))
	}
	if prefix > 16383 {
		return "", fmt.Errorf("%w: prefix %d out of range", ErrInvalidAddress, prefix)
	}

	var body []byte
	if prefix < 64 {
		body = append(body, byte(prefix))
	} else {
		first := byte((prefix&0xfc)>>2) | 0x40
		second := byte(prefix>>8) | byte(prefix&0x03)<<6
		body = append(body, first, second)
	}
	body = append(body, accountID...)

	sum := checksum(body)
	return base58.Encode(append(body, sum[:checksumLen]...)), nil
}

func checksum(body []byte) [blake2b.Size]byte {
	return blake2b.Sum512(append(append([]byte{}, checksumPrefix...), body...))
}
