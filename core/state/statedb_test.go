package state

import (
	"math/big"
	"testing"

	"github.com/setcodelab/setcodelab/core/types"
)

var testAddr = types.HexToAddress("0x1111111111111111111111111111111111111111")

func TestFreshAccountDefaults(t *testing.T) {
	st := NewMemoryState()
	if st.Exist(testAddr) {
		t.Error("fresh account must not exist")
	}
	if st.GetNonce(testAddr) != 0 {
		t.Error("fresh account nonce must be 0")
	}
	if len(st.GetCode(testAddr)) != 0 {
		t.Error("fresh account must have no code")
	}
	if st.GetBalance(testAddr).Sign() != 0 {
		t.Error("fresh account balance must be 0")
	}
}

func TestNonceRoundTrip(t *testing.T) {
	st := NewMemoryState()
	st.SetNonce(testAddr, 62)
	if got := st.GetNonce(testAddr); got != 62 {
		t.Fatalf("nonce %d, want 62", got)
	}
	if !st.Exist(testAddr) {
		t.Error("account with a nonce must exist")
	}
}

func TestCodeRoundTrip(t *testing.T) {
	st := NewMemoryState()
	code := []byte{0xef, 0x01, 0x00, 0xaa}
	st.SetCode(testAddr, code)
	if got := st.GetCode(testAddr); len(got) != len(code) {
		t.Fatalf("code %x, want %x", got, code)
	}

	// The stored code is a copy; mutating the caller's slice must not
	// change state.
	code[0] = 0x00
	if got := st.GetCode(testAddr); got[0] != 0xef {
		t.Fatal("stored code aliases the caller's slice")
	}
}

func TestSetCodeNilClears(t *testing.T) {
	st := NewMemoryState()
	st.SetCode(testAddr, []byte{0x01})
	st.SetCode(testAddr, nil)
	if len(st.GetCode(testAddr)) != 0 {
		t.Fatal("nil SetCode must clear code")
	}
	st.SetCode(testAddr, []byte{0x01})
	st.SetCode(testAddr, []byte{})
	if len(st.GetCode(testAddr)) != 0 {
		t.Fatal("empty SetCode must clear code")
	}
}

func TestBalanceArithmetic(t *testing.T) {
	st := NewMemoryState()
	st.AddBalance(testAddr, big.NewInt(1000))
	st.SubBalance(testAddr, big.NewInt(300))
	if got := st.GetBalance(testAddr); got.Cmp(big.NewInt(700)) != 0 {
		t.Fatalf("balance %s, want 700", got)
	}

	// GetBalance returns a copy.
	st.GetBalance(testAddr).SetInt64(0)
	if got := st.GetBalance(testAddr); got.Cmp(big.NewInt(700)) != 0 {
		t.Fatal("GetBalance leaked internal state")
	}
}

func TestExistSemantics(t *testing.T) {
	st := NewMemoryState()

	codeAddr := types.HexToAddress("0x2222222222222222222222222222222222222222")
	st.SetCode(codeAddr, []byte{0x01})
	if !st.Exist(codeAddr) {
		t.Error("account with code must exist")
	}

	balAddr := types.HexToAddress("0x3333333333333333333333333333333333333333")
	st.AddBalance(balAddr, big.NewInt(1))
	if !st.Exist(balAddr) {
		t.Error("account with balance must exist")
	}

	// Touched but still empty: created internally, yet empty by the
	// EIP-161 definition.
	emptyAddr := types.HexToAddress("0x4444444444444444444444444444444444444444")
	st.SetNonce(emptyAddr, 0)
	if st.Exist(emptyAddr) {
		t.Error("empty account must not count as existing")
	}
}
