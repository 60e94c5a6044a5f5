package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decred_ecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/setcodelab/setcodelab/core/types"
)

// SignatureLength is the byte length of a recoverable signature: R || S || V.
const SignatureLength = 65

// RecoveryIDOffset points to the V byte within a signature.
const RecoveryIDOffset = 64

// secp256k1N is the order of the secp256k1 curve.
var secp256k1N = S256().Params().N

// secp256k1HalfN is half the curve order, for the low-S malleability check.
var secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)

var (
	ErrInvalidSignatureLen = errors.New("crypto: signature must be 65 bytes [R || S || V]")
	ErrInvalidHashLen      = errors.New("crypto: hash must be 32 bytes")
	ErrInvalidPrivateKey   = errors.New("crypto: invalid private key")
)

// S256 returns the secp256k1 curve.
func S256() *secp256k1.KoblitzCurve {
	return secp256k1.S256()
}

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return priv.ToECDSA(), nil
}

// HexToECDSA parses a secp256k1 private key from its 32-byte hex form. An
// optional 0x prefix is accepted.
func HexToECDSA(hexkey string) (*ecdsa.PrivateKey, error) {
	hexkey = strings.TrimPrefix(hexkey, "0x")
	b, err := hex.DecodeString(hexkey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return ToECDSA(b)
}

// ToECDSA converts a 32-byte scalar to a secp256k1 private key. The scalar
// must be in the range (0, N).
func ToECDSA(d []byte) (*ecdsa.PrivateKey, error) {
	if len(d) != 32 {
		return nil, fmt.Errorf("%w: need 32 bytes, have %d", ErrInvalidPrivateKey, len(d))
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(d); overflow || scalar.IsZero() {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}
	return secp256k1.NewPrivateKey(&scalar).ToECDSA(), nil
}

// FromECDSA exports a private key to its 32-byte scalar form.
func FromECDSA(prv *ecdsa.PrivateKey) []byte {
	if prv == nil {
		return nil
	}
	return paddedBytes(prv.D, 32)
}

// FromECDSAPub exports a public key in the 65-byte uncompressed form.
func FromECDSAPub(pub *ecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	out := make([]byte, 65)
	out[0] = 0x04
	copy(out[1:33], paddedBytes(pub.X, 32))
	copy(out[33:65], paddedBytes(pub.Y, 32))
	return out
}

// PubkeyToAddress derives the Ethereum address of a public key:
// the last 20 bytes of keccak256(uncompressed pubkey without the 0x04 tag).
func PubkeyToAddress(pub ecdsa.PublicKey) types.Address {
	raw := FromECDSAPub(&pub)
	return types.BytesToAddress(Keccak256(raw[1:])[12:])
}

// Sign calculates a recoverable ECDSA signature over a 32-byte hash. The
// returned signature is in the [R || S || V] format where V is 0 or 1.
// S is always in the lower half of the curve order.
func Sign(hash []byte, prv *ecdsa.PrivateKey) ([]byte, error) {
	if len(hash) != 32 {
		return nil, ErrInvalidHashLen
	}
	if prv == nil || prv.D == nil {
		return nil, ErrInvalidPrivateKey
	}
	// Accept keys from any secp256k1 implementation, not just this one.
	if prv.Curve != nil && prv.Curve.Params().N.Cmp(secp256k1N) != 0 {
		return nil, fmt.Errorf("%w: not a secp256k1 key", ErrInvalidPrivateKey)
	}
	var key secp256k1.PrivateKey
	if overflow := key.Key.SetByteSlice(paddedBytes(prv.D, 32)); overflow || key.Key.IsZero() {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}
	defer key.Zero()

	// SignCompact produces [V+27 || R || S]; rotate V to the end and
	// normalize it to 0/1.
	compact := decred_ecdsa.SignCompact(&key, hash, false)
	v := compact[0] - 27
	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	sig[RecoveryIDOffset] = v
	return sig, nil
}

// Ecrecover recovers the uncompressed public key that produced the given
// [R || S || V] signature over hash.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	pub, err := SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	return FromECDSAPub(pub), nil
}

// SigToPub recovers the public key from an [R || S || V] signature over hash.
func SigToPub(hash, sig []byte) (*ecdsa.PublicKey, error) {
	if len(sig) != SignatureLength {
		return nil, ErrInvalidSignatureLen
	}
	if len(hash) != 32 {
		return nil, ErrInvalidHashLen
	}
	if sig[RecoveryIDOffset] > 1 {
		return nil, errors.New("crypto: invalid recovery id")
	}
	// RecoverCompact wants [V+27 || R || S].
	compact := make([]byte, SignatureLength)
	compact[0] = sig[RecoveryIDOffset] + 27
	copy(compact[1:], sig)

	pub, _, err := decred_ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, err
	}
	return pub.ToECDSA(), nil
}

// ValidateSignatureValues checks whether (v, r, s) form a valid signature
// per the consensus rules. When homestead is true, s must be in the lower
// half of the curve order.
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r == nil || s == nil {
		return false
	}
	if r.Sign() < 1 || s.Sign() < 1 {
		return false
	}
	if homestead && s.Cmp(secp256k1HalfN) > 0 {
		return false
	}
	return r.Cmp(secp256k1N) < 0 && s.Cmp(secp256k1N) < 0 && (v == 0 || v == 1)
}

// paddedBytes encodes i as big-endian, left-padded to length n.
func paddedBytes(i *big.Int, n int) []byte {
	b := i.Bytes()
	if len(b) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}
