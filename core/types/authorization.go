package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/setcodelab/setcodelab/rlp"
)

// EIP-7702 constants.
const (
	// AuthMagic is the signing magic byte for EIP-7702 authorization hashes.
	// The authorization hash is: keccak256(0x05 || rlp([chain_id, address, nonce]))
	AuthMagic byte = 0x05

	// MaxAuthorizationListSize is the maximum number of authorization
	// entries accepted in a single set-code transaction.
	MaxAuthorizationListSize = 256

	// DelegationCodeLength is the exact length of delegation designator
	// code: 3 bytes prefix (0xef0100) + 20 bytes address.
	DelegationCodeLength = 23

	// PerAuthBaseCost is the gas charged per authorization entry.
	PerAuthBaseCost uint64 = 12500

	// PerEmptyAccountCost is the additional gas charged per authorization
	// entry whose authority is an empty account.
	PerEmptyAccountCost uint64 = 25000
)

// DelegationPrefix marks account code as an EIP-7702 delegation designator.
var DelegationPrefix = []byte{0xef, 0x01, 0x00}

// ErrMalformedInput is the class of errors raised for structurally invalid
// authorization input. It indicates a caller bug, never an expected on-chain
// condition; per-tuple validation failures are reported as skips instead.
var ErrMalformedInput = errors.New("malformed authorization input")

// Authorization is a signed EIP-7702 authorization tuple. A ChainID of zero
// makes the tuple valid on any chain; the zero Address is the sentinel that
// clears delegation. V holds the signature's recovery parity (0 or 1).
//
// A tuple is immutable once constructed: changing any field invalidates the
// signature, so callers build a fresh tuple instead of mutating one.
type Authorization struct {
	ChainID uint256.Int
	Address Address
	Nonce   uint64
	V       uint8
	R       uint256.Int
	S       uint256.Int
}

// AuthorizationHash computes the EIP-7702 signing digest of the tuple:
// keccak256(0x05 || rlp([chain_id, address, nonce])). The triple is encoded
// with canonical RLP; ad hoc packed encodings break interoperability with
// conformant clients and are deliberately not supported.
func AuthorizationHash(auth *Authorization) Hash {
	if auth == nil {
		return Hash{}
	}
	chainIDEnc, _ := rlp.EncodeToBytes(auth.ChainID)
	addrEnc, _ := rlp.EncodeToBytes(auth.Address)
	nonceEnc, _ := rlp.EncodeToBytes(auth.Nonce)

	payload := make([]byte, 0, len(chainIDEnc)+len(addrEnc)+len(nonceEnc))
	payload = append(payload, chainIDEnc...)
	payload = append(payload, addrEnc...)
	payload = append(payload, nonceEnc...)

	d := sha3.NewLegacyKeccak256()
	d.Write([]byte{AuthMagic})
	d.Write(rlp.WrapList(payload))
	var h Hash
	copy(h[:], d.Sum(nil))
	return h
}

// NewAuthorization builds an unsigned tuple. The signature fields are left
// zero; use the builder in package core to produce a signed tuple.
func NewAuthorization(chainID uint256.Int, addr Address, nonce uint64) Authorization {
	return Authorization{ChainID: chainID, Address: addr, Nonce: nonce}
}

// ValidateAuthorizationList checks an authorization list for structural
// validity: it must be non-empty and within the per-transaction entry cap.
// Individual tuples with bad signatures or stale nonces are NOT structural
// errors; those are skipped during application.
func ValidateAuthorizationList(authList []Authorization) error {
	if len(authList) == 0 {
		return fmt.Errorf("%w: empty authorization list", ErrMalformedInput)
	}
	if len(authList) > MaxAuthorizationListSize {
		return fmt.Errorf("%w: %d authorization entries exceeds cap of %d",
			ErrMalformedInput, len(authList), MaxAuthorizationListSize)
	}
	return nil
}

// AddressToDelegation creates delegation designator code: 0xef0100 || address.
func AddressToDelegation(addr Address) []byte {
	code := make([]byte, DelegationCodeLength)
	copy(code, DelegationPrefix)
	copy(code[len(DelegationPrefix):], addr[:])
	return code
}

// ParseDelegation extracts the target address from delegation code.
// Returns the delegated address and true if b is exactly 23 bytes with the
// 0xef0100 prefix.
func ParseDelegation(b []byte) (Address, bool) {
	if len(b) != DelegationCodeLength || !HasDelegationPrefix(b) {
		return Address{}, false
	}
	return BytesToAddress(b[len(DelegationPrefix):]), true
}

// HasDelegationPrefix returns whether code starts with the delegation prefix.
func HasDelegationPrefix(code []byte) bool {
	if len(code) < len(DelegationPrefix) {
		return false
	}
	for i, p := range DelegationPrefix {
		if code[i] != p {
			return false
		}
	}
	return true
}

// authorizationJSON is the wire shape of a tuple. All integers are
// hex-encoded in canonical form (no leading zero nibble), as required by
// strict JSON-RPC parsers.
type authorizationJSON struct {
	ChainID string `json:"chainId"`
	Address string `json:"address"`
	Nonce   string `json:"nonce"`
	YParity string `json:"yParity"`
	R       string `json:"r"`
	S       string `json:"s"`
}

// MarshalJSON implements json.Marshaler using canonical hex integers.
func (a Authorization) MarshalJSON() ([]byte, error) {
	return json.Marshal(&authorizationJSON{
		ChainID: a.ChainID.Hex(),
		Address: a.Address.Hex(),
		Nonce:   formatHexUint64(a.Nonce),
		YParity: formatHexUint64(uint64(a.V)),
		R:       a.R.Hex(),
		S:       a.S.Hex(),
	})
}

// UnmarshalJSON implements json.Unmarshaler, rejecting non-canonical hex.
func (a *Authorization) UnmarshalJSON(input []byte) error {
	var dec authorizationJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	chainID, err := uint256.FromHex(dec.ChainID)
	if err != nil {
		return fmt.Errorf("%w: chainId: %v", ErrMalformedInput, err)
	}
	addr, err := ParseAddress(dec.Address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	nonce, err := parseHexUint64(dec.Nonce)
	if err != nil {
		return fmt.Errorf("%w: nonce: %v", ErrMalformedInput, err)
	}
	yParity, err := parseHexUint64(dec.YParity)
	if err != nil {
		return fmt.Errorf("%w: yParity: %v", ErrMalformedInput, err)
	}
	if yParity > 1 {
		return fmt.Errorf("%w: yParity must be 0 or 1, have %d", ErrMalformedInput, yParity)
	}
	r, err := uint256.FromHex(dec.R)
	if err != nil {
		return fmt.Errorf("%w: r: %v", ErrMalformedInput, err)
	}
	s, err := uint256.FromHex(dec.S)
	if err != nil {
		return fmt.Errorf("%w: s: %v", ErrMalformedInput, err)
	}
	a.ChainID = *chainID
	a.Address = addr
	a.Nonce = nonce
	a.V = uint8(yParity)
	a.R = *r
	a.S = *s
	return nil
}

// formatHexUint64 renders u as 0x-prefixed hex with no leading zero nibble.
func formatHexUint64(u uint64) string {
	return fmt.Sprintf("%#x", u)
}

// parseHexUint64 parses canonical 0x-prefixed hex into a uint64. Leading
// zero nibbles are rejected, matching strict JSON-RPC quantity parsing.
func parseHexUint64(s string) (uint64, error) {
	if len(s) < 3 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return 0, fmt.Errorf("quantity %q: missing 0x prefix or empty", s)
	}
	digits := s[2:]
	if len(digits) > 1 && digits[0] == '0' {
		return 0, fmt.Errorf("quantity %q: leading zero nibble", s)
	}
	if len(digits) > 16 {
		return 0, fmt.Errorf("quantity %q: exceeds 64 bits", s)
	}
	var u uint64
	for _, c := range []byte(digits) {
		var nibble uint64
		switch {
		case c >= '0' && c <= '9':
			nibble = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			nibble = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			nibble = uint64(c-'A') + 10
		default:
			return 0, fmt.Errorf("quantity %q: invalid hex digit %q", s, c)
		}
		u = u<<4 | nibble
	}
	return u, nil
}
