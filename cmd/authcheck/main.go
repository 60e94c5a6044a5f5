// Command authcheck applies an EIP-7702 authorization list against an
// account-state snapshot and reports, per tuple, whether it was applied or
// skipped and why. It distinguishes "my authorization lost a nonce race"
// from "my authorization list is malformed".
//
// Usage:
//
//	authcheck --auths auths.json [flags]
//
// Flags:
//
//	--auths      Path to a JSON array of authorization tuples (required)
//	--state      Path to a JSON account-state snapshot (optional)
//	--chain-id   Chain ID validation is performed against (default: 1)
//	--gas        Also report the list's intrinsic gas contribution
//	--verbosity  Log level 0-5 (default: 3)
//	--version    Print version and exit
//
// The snapshot maps addresses to {"nonce": N, "balance": "<decimal>",
// "code": "0x..."}; absent accounts start as fresh EOAs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"

	"github.com/holiman/uint256"

	"github.com/setcodelab/setcodelab/core"
	"github.com/setcodelab/setcodelab/core/state"
	"github.com/setcodelab/setcodelab/core/types"
	"github.com/setcodelab/setcodelab/log"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

type config struct {
	authsPath string
	statePath string
	chainID   uint64
	showGas   bool
	verbosity int
}

// run is the actual entry point, returning an exit code. It accepts CLI
// arguments (without the program name) and an output writer so it can be
// tested in isolation.
func run(args []string, stdout io.Writer) int {
	var (
		cfg         config
		showVersion bool
	)
	fs := flag.NewFlagSet("authcheck", flag.ContinueOnError)
	fs.StringVar(&cfg.authsPath, "auths", "", "path to authorization list JSON")
	fs.StringVar(&cfg.statePath, "state", "", "path to account-state snapshot JSON")
	fs.Uint64Var(&cfg.chainID, "chain-id", 1, "chain ID to validate against")
	fs.BoolVar(&cfg.showGas, "gas", false, "report intrinsic gas for the list")
	fs.IntVar(&cfg.verbosity, "verbosity", 3, "log level 0-5")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if showVersion {
		fmt.Fprintf(stdout, "authcheck %s (%s)\n", version, commit)
		return 0
	}
	if cfg.authsPath == "" {
		fmt.Fprintln(os.Stderr, "authcheck: --auths is required")
		fs.Usage()
		return 2
	}

	log.SetDefault(log.New(os.Stderr, verbosityToLevel(cfg.verbosity)))
	lg := log.Default().Module("authcheck")

	authList, err := loadAuthList(cfg.authsPath)
	if err != nil {
		lg.Error("cannot load authorization list", "path", cfg.authsPath, "err", err)
		return 1
	}
	st := state.NewMemoryState()
	if cfg.statePath != "" {
		if err := loadSnapshot(cfg.statePath, st); err != nil {
			lg.Error("cannot load state snapshot", "path", cfg.statePath, "err", err)
			return 1
		}
	}

	if cfg.showGas {
		gas := core.AuthorizationListGas(st, authList)
		fmt.Fprintf(stdout, "authorization list intrinsic gas: %d\n", gas)
	}

	chainID := uint256.NewInt(cfg.chainID)
	outcomes, err := core.ApplyAuthorizations(st, authList, chainID)
	if err != nil {
		lg.Error("authorization list rejected", "err", err)
		return 1
	}

	applied := 0
	for _, out := range outcomes {
		if out.Applied {
			applied++
			action := "delegated"
			detail := out.Target.Hex()
			if out.Target.IsZero() {
				action = "cleared"
				detail = "plain EOA"
			}
			fmt.Fprintf(stdout, "tuple %d: applied, authority %s %s -> %s\n",
				out.Index, out.Authority.Hex(), action, detail)
			continue
		}
		authority := out.Authority.Hex()
		if out.Authority.IsZero() {
			authority = "unrecoverable"
		}
		fmt.Fprintf(stdout, "tuple %d: skipped, authority %s: %v\n",
			out.Index, authority, out.Err)
	}
	lg.Info("authorization list processed",
		"tuples", len(outcomes), "applied", applied, "skipped", len(outcomes)-applied)
	return 0
}

// loadAuthList reads a JSON array of authorization tuples in wire form.
func loadAuthList(path string) ([]types.Authorization, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var authList []types.Authorization
	if err := json.Unmarshal(raw, &authList); err != nil {
		return nil, err
	}
	return authList, nil
}

// snapshotAccount is one account in the state snapshot file.
type snapshotAccount struct {
	Nonce   uint64 `json:"nonce"`
	Balance string `json:"balance,omitempty"`
	Code    string `json:"code,omitempty"`
}

// loadSnapshot populates st from a snapshot file mapping addresses to
// accounts.
func loadSnapshot(path string, st *state.MemoryState) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snapshot map[string]snapshotAccount
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return err
	}
	for addrHex, acc := range snapshot {
		addr, err := types.ParseAddress(addrHex)
		if err != nil {
			return err
		}
		st.SetNonce(addr, acc.Nonce)
		if acc.Balance != "" {
			balance, ok := new(big.Int).SetString(acc.Balance, 10)
			if !ok {
				return fmt.Errorf("account %s: bad balance %q", addrHex, acc.Balance)
			}
			st.AddBalance(addr, balance)
		}
		if acc.Code != "" && acc.Code != "0x" {
			code, err := parseHexBytes(acc.Code)
			if err != nil {
				return fmt.Errorf("account %s: %v", addrHex, err)
			}
			st.SetCode(addr, code)
		}
	}
	return nil
}

func parseHexBytes(s string) ([]byte, error) {
	if len(s) < 2 || s[0] != '0' || s[1] != 'x' {
		return nil, fmt.Errorf("bad hex string %q", s)
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string %q", s)
	}
	out := make([]byte, 0, (len(s)-2)/2)
	for i := 2; i < len(s); i += 2 {
		hi, ok1 := hexNibble(s[i])
		lo, ok2 := hexNibble(s[i+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("bad hex string %q", s)
		}
		out = append(out, hi<<4|lo)
	}
	return out, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// verbosityToLevel maps geth-style 0-5 verbosity to slog levels.
func verbosityToLevel(v int) slog.Level {
	switch {
	case v <= 1:
		return slog.LevelError
	case v == 2:
		return slog.LevelWarn
	case v == 3:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
