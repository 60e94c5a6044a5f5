package core

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/setcodelab/setcodelab/core/state"
	"github.com/setcodelab/setcodelab/core/types"
)

// Skip reasons. A skipped tuple is the protocol's partial-failure tolerance
// at work, not an error: the enclosing transaction proceeds and later tuples
// are still considered.
var (
	ErrAuthChainID      = errors.New("authorization chain ID mismatch")
	ErrAuthNonce        = errors.New("authorization nonce mismatch")
	ErrAuthorityHasCode = errors.New("authority has non-delegation code")
)

// AuthOutcome records what happened to one tuple during application, so
// callers can tell a nonce race from a malformed list.
type AuthOutcome struct {
	// Index is the tuple's position in the authorization list.
	Index int
	// Authority is the recovered signer, or the zero address when
	// recovery failed.
	Authority types.Address
	// Applied reports whether the tuple changed state.
	Applied bool
	// Target is the delegation target of an applied tuple. The zero
	// address means the tuple cleared delegation.
	Target types.Address
	// Err carries the skip reason for tuples that were not applied.
	Err error
}

// ApplyAuthorizations applies an authorization list, in list order, against
// the given account state, mirroring the validation a conformant client
// performs while processing a type-4 transaction:
//
//  1. recover the authority from the tuple's signature; on failure, skip;
//  2. skip unless the tuple's chain ID is zero or equals chainID;
//  3. skip if the authority's code is set to something other than an
//     existing delegation designator;
//  4. skip unless the tuple's nonce equals the authority's current nonce;
//  5. otherwise set the authority's code to 0xef0100 || target (or clear it
//     for the zero-address sentinel) and increment the authority's nonce.
//
// A later valid tuple for the same authority overwrites the earlier result:
// last valid wins. The returned outcomes parallel the input list and report,
// per tuple, whether it was applied and why it was skipped otherwise.
//
// Only a structurally invalid input (nil state, nil chain ID, empty or
// oversized list) produces an error; it wraps types.ErrMalformedInput.
func ApplyAuthorizations(st state.StateDB, authList []types.Authorization, chainID *uint256.Int) ([]AuthOutcome, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: nil state", types.ErrMalformedInput)
	}
	if chainID == nil {
		return nil, fmt.Errorf("%w: nil chain ID", types.ErrMalformedInput)
	}
	if err := types.ValidateAuthorizationList(authList); err != nil {
		return nil, err
	}

	outcomes := make([]AuthOutcome, len(authList))
	for i := range authList {
		outcomes[i] = applyOne(st, &authList[i], chainID, i)
	}
	return outcomes, nil
}

func applyOne(st state.StateDB, auth *types.Authorization, chainID *uint256.Int, index int) AuthOutcome {
	out := AuthOutcome{Index: index}

	authority, err := RecoverAuthority(auth)
	if err != nil {
		out.Err = err
		return out
	}
	out.Authority = authority

	if !auth.ChainID.IsZero() && !auth.ChainID.Eq(chainID) {
		out.Err = fmt.Errorf("%w: tuple wants chain %s, processing chain %s",
			ErrAuthChainID, auth.ChainID.Dec(), chainID.Dec())
		return out
	}

	// An authority that already runs contract code cannot be re-delegated;
	// an existing delegation designator may be overridden or cleared.
	if code := st.GetCode(authority); len(code) != 0 {
		if _, isDelegation := types.ParseDelegation(code); !isDelegation {
			out.Err = ErrAuthorityHasCode
			return out
		}
	}

	currentNonce := st.GetNonce(authority)
	if auth.Nonce != currentNonce {
		out.Err = fmt.Errorf("%w: tuple carries %d, authority is at %d",
			ErrAuthNonce, auth.Nonce, currentNonce)
		return out
	}

	if auth.Address.IsZero() {
		// Zero-address sentinel: clear delegation, back to plain EOA.
		st.SetCode(authority, nil)
	} else {
		st.SetCode(authority, types.AddressToDelegation(auth.Address))
	}
	st.SetNonce(authority, currentNonce+1)

	out.Applied = true
	out.Target = auth.Address
	return out
}

// DelegationTarget reports the account's delegation status: the target
// implementation address and true when the account's code is a delegation
// designator, the zero address and false for a plain EOA or a regular
// contract.
func DelegationTarget(st state.StateDB, addr types.Address) (types.Address, bool) {
	return types.ParseDelegation(st.GetCode(addr))
}

// IsDelegated reports whether code starts with the EIP-7702 delegation
// designator prefix.
func IsDelegated(code []byte) bool {
	return types.HasDelegationPrefix(code)
}

// ResolveDelegation extracts the target address from delegation code.
func ResolveDelegation(code []byte) (types.Address, bool) {
	return types.ParseDelegation(code)
}

// AuthorizationListGas returns the intrinsic gas the authorization list adds
// to its transaction: a base charge per tuple plus a surcharge for each
// tuple whose authority account does not yet exist. The sponsor pays this
// whether or not individual tuples end up applied.
func AuthorizationListGas(st state.StateDB, authList []types.Authorization) uint64 {
	var gas uint64
	for i := range authList {
		gas += types.PerAuthBaseCost
		authority, err := RecoverAuthority(&authList[i])
		if err != nil {
			continue
		}
		if !st.Exist(authority) {
			gas += types.PerEmptyAccountCost
		}
	}
	return gas
}
