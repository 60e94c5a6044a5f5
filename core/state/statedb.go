// Package state provides the account-state oracle consumed by the
// delegation engine: per-account nonces, balances and code. It replaces the
// ambient provider state a live network would supply, keeping the engine
// testable offline.
package state

import (
	"math/big"

	"github.com/setcodelab/setcodelab/core/types"
)

// StateDB is the read/write surface the delegation engine needs. A chain
// client's state database satisfies it; MemoryState is the in-process
// implementation used by tests and tooling.
type StateDB interface {
	// Exist reports whether the account has been touched (has a nonce,
	// balance or code). Fresh accounts are empty and count as such for the
	// per-empty-account gas surcharge.
	Exist(addr types.Address) bool

	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)

	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)

	GetBalance(addr types.Address) *big.Int
	AddBalance(addr types.Address, amount *big.Int)
	SubBalance(addr types.Address, amount *big.Int)
}

// account holds the mutable state of one address.
type account struct {
	nonce   uint64
	balance *big.Int
	code    []byte
}

func newAccount() *account {
	return &account{balance: new(big.Int)}
}

// MemoryState is an in-memory StateDB. The zero value is not usable; create
// instances with NewMemoryState.
type MemoryState struct {
	accounts map[types.Address]*account
}

// NewMemoryState creates an empty in-memory state.
func NewMemoryState() *MemoryState {
	return &MemoryState{accounts: make(map[types.Address]*account)}
}

func (m *MemoryState) get(addr types.Address) *account {
	return m.accounts[addr]
}

func (m *MemoryState) getOrCreate(addr types.Address) *account {
	if acc := m.accounts[addr]; acc != nil {
		return acc
	}
	acc := newAccount()
	m.accounts[addr] = acc
	return acc
}

// Exist reports whether addr has any recorded state.
func (m *MemoryState) Exist(addr types.Address) bool {
	acc := m.get(addr)
	if acc == nil {
		return false
	}
	return acc.nonce != 0 || acc.balance.Sign() != 0 || len(acc.code) != 0
}

// GetNonce returns the account's current transaction nonce.
func (m *MemoryState) GetNonce(addr types.Address) uint64 {
	if acc := m.get(addr); acc != nil {
		return acc.nonce
	}
	return 0
}

// SetNonce sets the account's transaction nonce.
func (m *MemoryState) SetNonce(addr types.Address, nonce uint64) {
	m.getOrCreate(addr).nonce = nonce
}

// GetCode returns the account's code. Empty code denotes a plain EOA.
func (m *MemoryState) GetCode(addr types.Address) []byte {
	if acc := m.get(addr); acc != nil {
		return acc.code
	}
	return nil
}

// SetCode replaces the account's code. Passing nil or an empty slice clears
// it, returning the account to plain-EOA status.
func (m *MemoryState) SetCode(addr types.Address, code []byte) {
	acc := m.getOrCreate(addr)
	if len(code) == 0 {
		acc.code = nil
		return
	}
	acc.code = append([]byte(nil), code...)
}

// GetBalance returns a copy of the account's balance.
func (m *MemoryState) GetBalance(addr types.Address) *big.Int {
	if acc := m.get(addr); acc != nil {
		return new(big.Int).Set(acc.balance)
	}
	return new(big.Int)
}

// AddBalance credits the account.
func (m *MemoryState) AddBalance(addr types.Address, amount *big.Int) {
	acc := m.getOrCreate(addr)
	acc.balance.Add(acc.balance, amount)
}

// SubBalance debits the account.
func (m *MemoryState) SubBalance(addr types.Address, amount *big.Int) {
	acc := m.getOrCreate(addr)
	acc.balance.Sub(acc.balance, amount)
}
