// internal/blockchain/solbc/error_analyzer.go
package solbc

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"
)

// ProgramError is a custom error code raised by an on-chain program while
// simulating or executing a transaction.
type ProgramError struct {
	Program     string
	Instruction int // -1 when unknown
	Code        uint32
	Name        string
	Logs        []string
	Err         error
}

func (e *ProgramError) Error() string {
	name := e.Name
	if name == "" {
		name = "custom error"
	}
	if e.Program == "" {
		return fmt.Sprintf("program error %s (0x%x) in instruction %d", name, e.Code, e.Instruction)
	}
	return fmt.Sprintf("program %s: %s (0x%x) in instruction %d", e.Program, name, e.Code, e.Instruction)
}

func (e *ProgramError) Unwrap() error {
	return e.Err
}

// TokenProgramErrorNames are the SPL token program error codes.
var TokenProgramErrorNames = map[uint32]string{
	0:  "NotRentExempt",
	1:  "InsufficientFunds",
	2:  "InvalidMint",
	3:  "MintMismatch",
	4:  "OwnerMismatch",
	5:  "FixedSupply",
	6:  "AlreadyInUse",
	7:  "InvalidNumberOfProvidedSigners",
	8:  "InvalidNumberOfRequiredSigners",
	9:  "UninitializedState",
	10: "NativeNotSupported",
	11: "NonNativeHasBalance",
	12: "InvalidInstruction",
	13: "InvalidState",
	14: "Overflow",
	15: "AuthorityTypeNotSupported",
	16: "MintCannotFreeze",
	17: "AccountFrozen",
	18: "MintDecimalsMismatch",
	19: "NonNativeNotSupported",
}

var customErrorLog = regexp.MustCompile(`^Program (\w+) failed: custom program error: 0x([0-9a-fA-F]+)$`)

// ErrorAnalyzer turns RPC and confirmation errors into ProgramError values
// using per-program code tables.
type ErrorAnalyzer struct {
	logger *zap.Logger
	mu     sync.RWMutex
	names  map[string]map[uint32]string
}

// NewErrorAnalyzer creates an analyzer that already knows the token program.
func NewErrorAnalyzer(logger *zap.Logger) *ErrorAnalyzer {
	ea := &ErrorAnalyzer{
		logger: logger.Named("error-analyzer"),
		names:  make(map[string]map[uint32]string),
	}
	ea.RegisterProgram(solana.TokenProgramID, TokenProgramErrorNames)
	return ea
}

// RegisterProgram sets the code table of program.
func (ea *ErrorAnalyzer) RegisterProgram(program solana.PublicKey, names map[uint32]string) {
	ea.mu.Lock()
	defer ea.mu.Unlock()
	ea.names[program.String()] = names
}

func (ea *ErrorAnalyzer) name(program string, code uint32) string {
	ea.mu.RLock()
	defer ea.mu.RUnlock()
	return ea.names[program][code]
}

// Analyze returns a *ProgramError wrapping err when err carries a custom
// program error, and err unchanged otherwise.
func (ea *ErrorAnalyzer) Analyze(err error) error {
	if ea == nil || err == nil {
		return err
	}
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}
	data, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return err
	}
	logs := stringList(data["logs"])
	pe := ea.fromStatus(data["err"], logs)
	if pe == nil {
		return err
	}
	pe.Err = err
	ea.logger.Warn("Program error detected",
		zap.String("program", pe.Program),
		zap.Uint32("code", pe.Code),
		zap.String("name", pe.Name))
	return pe
}

// AnalyzeStatus decodes the err field of a signature status. It returns nil
// when the status carries no custom program error.
func (ea *ErrorAnalyzer) AnalyzeStatus(status interface{}) *ProgramError {
	if ea == nil || status == nil {
		return nil
	}
	return ea.fromStatus(status, nil)
}

// fromStatus reads {"InstructionError": [idx, {"Custom": code}]} and falls
// back to the program failure line of the logs.
func (ea *ErrorAnalyzer) fromStatus(status interface{}, logs []string) *ProgramError {
	pe := &ProgramError{Instruction: -1, Logs: logs}
	found := false

	if m, ok := status.(map[string]interface{}); ok {
		if pair, ok := m["InstructionError"].([]interface{}); ok && len(pair) == 2 {
			if idx, ok := number(pair[0]); ok {
				pe.Instruction = int(idx)
			}
			if custom, ok := pair[1].(map[string]interface{}); ok {
				if code, ok := number(custom["Custom"]); ok {
					pe.Code = uint32(code)
					found = true
				}
			}
		}
	}

	for i := len(logs) - 1; i >= 0; i-- {
		match := customErrorLog.FindStringSubmatch(logs[i])
		if match == nil {
			continue
		}
		code, err := strconv.ParseUint(match[2], 16, 32)
		if err != nil {
			continue
		}
		if !found {
			pe.Code = uint32(code)
			found = true
		}
		pe.Program = match[1]
		break
	}

	if !found {
		return nil
	}
	pe.Name = ea.name(pe.Program, pe.Code)
	return pe
}

func number(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

func stringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
