package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"
)

var ErrSignatureEncoding = errors.New("unsupported signature encoding")

// DecodeSignature turns the wire form of a signature into raw bytes.
//
// Wallet adapters send the signature either as a JSON array of byte values
// or as a string. Strings are tried as 0x-hex, base58 and base64 in that
// order; a string matching none of them is returned as its raw bytes and
// left for the verifier to reject.
func DecodeSignature(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrSignatureEncoding
	}

	switch raw[0] {
	case '[':
		var values []int
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSignatureEncoding, err)
		}
		sig := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: byte %d out of range", ErrSignatureEncoding, i)
			}
			sig[i] = byte(v)
		}
		return sig, nil

	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSignatureEncoding, err)
		}
		return decodeSignatureString(s), nil
	}

	return nil, ErrSignatureEncoding
}

func decodeSignatureString(s string) []byte {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if sig, err := hexutil.Decode("0x" + s[2:]); err == nil {
			return sig
		}
	}
	if sig, err := base58.Decode(s); err == nil && len(sig) == ed25519.SignatureSize {
		return sig
	}
	if sig, err := base64.StdEncoding.DecodeString(s); err == nil && len(sig) == ed25519.SignatureSize {
		return sig
	}
	return []byte(s)
}
