// internal/types/priority.go
package types

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"go.uber.org/zap"
)

type PriorityLevel string

const (
	PriorityNone    PriorityLevel = "none"
	PriorityLow     PriorityLevel = "low"
	PriorityMedium  PriorityLevel = "medium"
	PriorityHigh    PriorityLevel = "high"
	PriorityExtreme PriorityLevel = "extreme"
)

// ParsePriorityLevel принимает имя профиля без учёта регистра; пустая строка – none.
func ParsePriorityLevel(s string) (PriorityLevel, error) {
	level := PriorityLevel(strings.ToLower(strings.TrimSpace(s)))
	switch level {
	case "":
		return PriorityNone, nil
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityExtreme:
		return level, nil
	default:
		return "", fmt.Errorf("unknown priority level: %q", s)
	}
}

type PriorityConfig struct {
	ComputeUnits uint32 // Number of compute units
	PriorityFee  uint64 // Priority fee in micro-lamports per compute unit
	HeapSize     uint32 // Additional heap memory (optional)
}

// PriorityManager строит compute-budget префикс транзакции.
type PriorityManager struct {
	profiles map[PriorityLevel]PriorityConfig
	logger   *zap.Logger
}

func NewPriorityManager(logger *zap.Logger) *PriorityManager {
	return &PriorityManager{
		profiles: map[PriorityLevel]PriorityConfig{
			PriorityNone:   {},
			PriorityLow:    {ComputeUnits: 200_000, PriorityFee: 1_000},
			PriorityMedium: {ComputeUnits: 400_000, PriorityFee: 5_000},
			PriorityHigh:   {ComputeUnits: 600_000, PriorityFee: 10_000},
			PriorityExtreme: {
				ComputeUnits: 1_000_000,
				PriorityFee:  50_000,
				HeapSize:     32 * 1024,
			},
		},
		logger: logger.Named("priority"),
	}
}

// Profile returns the config of a named level.
func (pm *PriorityManager) Profile(level PriorityLevel) (PriorityConfig, error) {
	cfg, ok := pm.profiles[level]
	if !ok {
		return PriorityConfig{}, fmt.Errorf("unknown priority level: %s", level)
	}
	return cfg, nil
}

// Instructions возвращает инструкции профиля; пустой список для none.
func (pm *PriorityManager) Instructions(level PriorityLevel) ([]solana.Instruction, error) {
	cfg, err := pm.Profile(level)
	if err != nil {
		return nil, err
	}
	return pm.build(cfg), nil
}

// CustomInstructions строит префикс с явными значениями.
func (pm *PriorityManager) CustomInstructions(priorityFee uint64, units uint32) []solana.Instruction {
	return pm.build(PriorityConfig{ComputeUnits: units, PriorityFee: priorityFee})
}

func (pm *PriorityManager) build(cfg PriorityConfig) []solana.Instruction {
	var instructions []solana.Instruction

	if cfg.ComputeUnits > 0 {
		instructions = append(instructions,
			computebudget.NewSetComputeUnitLimitInstruction(cfg.ComputeUnits).Build())
	}
	if cfg.PriorityFee > 0 {
		instructions = append(instructions,
			computebudget.NewSetComputeUnitPriceInstruction(cfg.PriorityFee).Build())
	}
	if cfg.HeapSize > 0 {
		instructions = append(instructions,
			computebudget.NewRequestHeapFrameInstruction(cfg.HeapSize).Build())
	}

	if len(instructions) > 0 {
		pm.logger.Debug("Compute budget prefix",
			zap.Uint32("units", cfg.ComputeUnits),
			zap.Uint64("micro_lamports", cfg.PriorityFee))
	}
	return instructions
}
