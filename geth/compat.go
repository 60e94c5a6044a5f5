// Package geth provides adapters between setcodelab and go-ethereum.
//
// The authorization engine in package core is self-contained; this package
// bridges it to a real client stack: converting tuples to go-ethereum's
// SetCodeAuthorization and assembling the type-4 transaction envelope that a
// submission layer (ethclient or raw JSON-RPC) accepts.
package geth

import (
	"crypto/ecdsa"
	"errors"
	"math/big"

	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/setcodelab/setcodelab/core/types"
)

// ErrNilChainID is returned when a transaction is requested without a chain ID.
var ErrNilChainID = errors.New("geth: nil chain ID")

// ToSetCodeAuthorization converts a setcodelab tuple to go-ethereum's wire
// type. The two structs carry identical fields, so the conversion is lossless.
func ToSetCodeAuthorization(auth types.Authorization) gethtypes.SetCodeAuthorization {
	return gethtypes.SetCodeAuthorization{
		ChainID: auth.ChainID,
		Address: gethcommon.Address(auth.Address),
		Nonce:   auth.Nonce,
		V:       auth.V,
		R:       auth.R,
		S:       auth.S,
	}
}

// FromSetCodeAuthorization converts a go-ethereum authorization back to the
// setcodelab tuple type.
func FromSetCodeAuthorization(auth gethtypes.SetCodeAuthorization) types.Authorization {
	return types.Authorization{
		ChainID: auth.ChainID,
		Address: types.Address(auth.Address),
		Nonce:   auth.Nonce,
		V:       auth.V,
		R:       auth.R,
		S:       auth.S,
	}
}

// TxParams holds the envelope fields of a type-4 transaction around an
// authorization list.
type TxParams struct {
	ChainID   *uint256.Int
	Nonce     uint64
	GasTipCap *uint256.Int
	GasFeeCap *uint256.Int
	Gas       uint64
	To        types.Address
	Value     *uint256.Int
	Data      []byte
}

// NewSetCodeTx assembles an unsigned go-ethereum type-4 (set-code)
// transaction carrying the given authorization list. The caller signs it
// with the submitting account's key (the sponsor's, in the sponsored flow)
// and hands it to a submission layer.
func NewSetCodeTx(params TxParams, authList []types.Authorization) (*gethtypes.Transaction, error) {
	if params.ChainID == nil {
		return nil, ErrNilChainID
	}
	if err := types.ValidateAuthorizationList(authList); err != nil {
		return nil, err
	}
	converted := make([]gethtypes.SetCodeAuthorization, len(authList))
	for i, auth := range authList {
		converted[i] = ToSetCodeAuthorization(auth)
	}
	value := params.Value
	if value == nil {
		value = new(uint256.Int)
	}
	tipCap := params.GasTipCap
	if tipCap == nil {
		tipCap = new(uint256.Int)
	}
	feeCap := params.GasFeeCap
	if feeCap == nil {
		feeCap = new(uint256.Int)
	}
	return gethtypes.NewTx(&gethtypes.SetCodeTx{
		ChainID:   params.ChainID,
		Nonce:     params.Nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       params.Gas,
		To:        gethcommon.Address(params.To),
		Value:     value,
		Data:      params.Data,
		AuthList:  converted,
	}), nil
}

// SignSetCodeTx signs a type-4 transaction for submission on chainID using
// the latest signer rules.
func SignSetCodeTx(tx *gethtypes.Transaction, chainID *big.Int, key *ecdsa.PrivateKey) (*gethtypes.Transaction, error) {
	if chainID == nil {
		return nil, ErrNilChainID
	}
	return gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(chainID), key)
}

// Authority recovers the signer of a go-ethereum authorization, for
// cross-checking against core.RecoverAuthority.
func Authority(auth gethtypes.SetCodeAuthorization) (types.Address, error) {
	addr, err := auth.Authority()
	if err != nil {
		return types.Address{}, err
	}
	return types.Address(addr), nil
}
