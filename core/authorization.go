// Package core implements the two halves of the EIP-7702 delegation engine:
// building signed authorization tuples and applying authorization lists to
// account code state.
package core

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/setcodelab/setcodelab/core/types"
	"github.com/setcodelab/setcodelab/crypto"
)

var (
	// ErrSigning is returned when the authorization builder cannot produce
	// a valid recoverable signature (missing or unusable key material).
	ErrSigning = errors.New("authorization signing failed")

	// ErrAuthInvalidSig means the tuple's signature values fail the
	// consensus validity rules (range, low-S, parity).
	ErrAuthInvalidSig = errors.New("authorization signature values invalid")

	// ErrAuthSignature means the authority could not be recovered from the
	// tuple's signature.
	ErrAuthSignature = errors.New("authorization signature recovery failed")
)

// SignAuthorization builds a signed authorization tuple delegating the key's
// account to addr. It signs the canonical EIP-7702 digest
// keccak256(0x05 || rlp([chainID, addr, nonce])) and returns the tuple with
// the recovery parity in V and the scalars in R and S.
//
// The nonce must be chosen against the submission mode of the enclosing
// transaction; see AuthorizationNonce.
func SignAuthorization(key *ecdsa.PrivateKey, chainID uint256.Int, addr types.Address, nonce uint64) (types.Authorization, error) {
	if key == nil {
		return types.Authorization{}, fmt.Errorf("%w: no private key", ErrSigning)
	}
	auth := types.NewAuthorization(chainID, addr, nonce)
	sighash := types.AuthorizationHash(&auth)

	sig, err := crypto.Sign(sighash.Bytes(), key)
	if err != nil {
		return types.Authorization{}, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	auth.V = sig[crypto.RecoveryIDOffset]
	auth.R.SetBytes(sig[:32])
	auth.S.SetBytes(sig[32:64])
	return auth, nil
}

// AuthorizationNonce returns the nonce an authorization must carry given the
// authority's current transaction nonce.
//
// When the authority itself submits the enclosing transaction, the chain
// increments its nonce for the outer transaction before the authorization
// list is consumed, so the tuple must be built with currentNonce+1. When a
// sponsor submits the transaction, the authority's nonce is untouched and
// the tuple carries currentNonce unchanged. Getting this wrong does not fail
// at build time; the resulting tuple is silently skipped at application.
func AuthorizationNonce(currentNonce uint64, selfSubmitting bool) uint64 {
	if selfSubmitting {
		return currentNonce + 1
	}
	return currentNonce
}

// RecoverAuthority recovers the authority address from a signed tuple. The
// signature values are checked against the consensus rules (including the
// low-S bound) before recovery.
func RecoverAuthority(auth *types.Authorization) (types.Address, error) {
	if auth == nil {
		return types.Address{}, fmt.Errorf("%w: nil authorization", types.ErrMalformedInput)
	}
	if auth.V > 1 {
		return types.Address{}, ErrAuthInvalidSig
	}
	r := auth.R.ToBig()
	s := auth.S.ToBig()
	if !crypto.ValidateSignatureValues(auth.V, r, s, true) {
		return types.Address{}, ErrAuthInvalidSig
	}

	sighash := types.AuthorizationHash(auth)
	sig := make([]byte, crypto.SignatureLength)
	rb, sb := auth.R.Bytes32(), auth.S.Bytes32()
	copy(sig[:32], rb[:])
	copy(sig[32:64], sb[:])
	sig[crypto.RecoveryIDOffset] = auth.V

	pub, err := crypto.Ecrecover(sighash.Bytes(), sig)
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: %v", ErrAuthSignature, err)
	}
	return types.BytesToAddress(crypto.Keccak256(pub[1:])[12:]), nil
}
