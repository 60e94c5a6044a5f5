package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/holiman/uint256"

	"github.com/setcodelab/setcodelab/core"
	"github.com/setcodelab/setcodelab/core/state"
	"github.com/setcodelab/setcodelab/core/types"
	"github.com/setcodelab/setcodelab/crypto"
)

const testKeyHex = "289c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032"

func writeAuthList(t *testing.T, authList []types.Authorization) string {
	t.Helper()
	raw, err := json.Marshal(authList)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "auths.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunReportsApplied(t *testing.T) {
	key, err := crypto.HexToECDSA(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	target := types.HexToAddress("0xeb601f847d25ad6bdd9bffafbbb6b724c0b71a7d")
	auth, err := core.SignAuthorization(key, *uint256.NewInt(1), target, 0)
	if err != nil {
		t.Fatal(err)
	}
	path := writeAuthList(t, []types.Authorization{auth})

	var out bytes.Buffer
	if code := run([]string{"--auths", path}, &out); code != 0 {
		t.Fatalf("exit code %d, want 0", code)
	}
	if !strings.Contains(out.String(), "tuple 0: applied") {
		t.Fatalf("missing applied report: %s", out.String())
	}
	if !strings.Contains(out.String(), target.Hex()) {
		t.Fatalf("missing delegation target: %s", out.String())
	}
}

func TestRunReportsSkipReason(t *testing.T) {
	key, err := crypto.HexToECDSA(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	target := types.HexToAddress("0xeb601f847d25ad6bdd9bffafbbb6b724c0b71a7d")
	// Nonce 999 against a fresh account: deterministically skipped.
	auth, err := core.SignAuthorization(key, *uint256.NewInt(1), target, 999)
	if err != nil {
		t.Fatal(err)
	}
	path := writeAuthList(t, []types.Authorization{auth})

	var out bytes.Buffer
	if code := run([]string{"--auths", path}, &out); code != 0 {
		t.Fatalf("exit code %d, want 0", code)
	}
	if !strings.Contains(out.String(), "tuple 0: skipped") {
		t.Fatalf("missing skip report: %s", out.String())
	}
	if !strings.Contains(out.String(), "nonce") {
		t.Fatalf("skip reason missing nonce detail: %s", out.String())
	}
}

func TestRunWithStateSnapshot(t *testing.T) {
	key, err := crypto.HexToECDSA(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	authority := crypto.PubkeyToAddress(key.PublicKey)
	target := types.HexToAddress("0xeb601f847d25ad6bdd9bffafbbb6b724c0b71a7d")

	// Sponsored flow at nonce 62.
	auth, err := core.SignAuthorization(key, *uint256.NewInt(1), target, 62)
	if err != nil {
		t.Fatal(err)
	}
	authsPath := writeAuthList(t, []types.Authorization{auth})

	snapshot := fmt.Sprintf(`{%q: {"nonce": 62, "balance": "1000000000000000000"}}`, authority.Hex())
	statePath := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(statePath, []byte(snapshot), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if code := run([]string{"--auths", authsPath, "--state", statePath, "--gas"}, &out); code != 0 {
		t.Fatalf("exit code %d, want 0", code)
	}
	if !strings.Contains(out.String(), "tuple 0: applied") {
		t.Fatalf("missing applied report: %s", out.String())
	}
	// The authority exists in the snapshot, so only the base charge applies.
	if !strings.Contains(out.String(), "intrinsic gas: 12500") {
		t.Fatalf("missing or wrong gas report: %s", out.String())
	}
}

func TestRunMalformedList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auths.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if code := run([]string{"--auths", path}, &out); code != 1 {
		t.Fatalf("exit code %d, want 1 for malformed list", code)
	}
}

func TestRunMissingFlags(t *testing.T) {
	var out bytes.Buffer
	if code := run(nil, &out); code != 2 {
		t.Fatalf("exit code %d, want 2 without --auths", code)
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"--version"}, &out); code != 0 {
		t.Fatalf("exit code %d, want 0", code)
	}
	if !strings.Contains(out.String(), "authcheck") {
		t.Fatalf("version output %q", out.String())
	}
}

func TestLoadSnapshotRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	badAddr := filepath.Join(dir, "badaddr.json")
	os.WriteFile(badAddr, []byte(`{"0x12": {"nonce": 1}}`), 0o644)
	if err := loadSnapshot(badAddr, state.NewMemoryState()); err == nil {
		t.Error("short address accepted")
	}

	badBalance := filepath.Join(dir, "badbal.json")
	os.WriteFile(badBalance, []byte(`{"0x1111111111111111111111111111111111111111": {"nonce": 1, "balance": "xyz"}}`), 0o644)
	if err := loadSnapshot(badBalance, state.NewMemoryState()); err == nil {
		t.Error("bad balance accepted")
	}

	badCode := filepath.Join(dir, "badcode.json")
	os.WriteFile(badCode, []byte(`{"0x1111111111111111111111111111111111111111": {"nonce": 1, "code": "zz"}}`), 0o644)
	if err := loadSnapshot(badCode, state.NewMemoryState()); err == nil {
		t.Error("bad code accepted")
	}
}
