// internal/dex/tokenswap/programs.go
package tokenswap

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Network names a cluster.
type Network string

const (
	MainnetBeta Network = "mainnet-beta"
	Testnet     Network = "testnet"
	Devnet      Network = "devnet"
	Localnet    Network = "localnet"
)

// LiquidityTokenPrecision is the decimals of every liquidity mint created here.
const LiquidityTokenPrecision = 8

// DefaultSlippage is the fractional tolerance applied to quoted amounts.
const DefaultSlippage = 0.25

// WrappedSolMint is the mint of the wrapped native asset.
var WrappedSolMint = solana.WrappedSol

// ProgramOwnerFeeAddress collects host fees on the official deployments.
var ProgramOwnerFeeAddress = solana.MustPublicKeyFromBase58("Fuwdtp3azhHAoACLY1WbBh6sHbG4XMRvR4UV2BJLQjzT")

// Programs groups the swap program ids deployed on a network.
type Programs struct {
	Network Network
	Swap    solana.PublicKey
	// Legacy programs are read for balances but excluded from routing.
	Legacy []solana.PublicKey
	Token  solana.PublicKey
}

// IsLegacy reports whether id is one of the legacy swap programs.
func (p Programs) IsLegacy(id solana.PublicKey) bool {
	for _, l := range p.Legacy {
		if l.Equals(id) {
			return true
		}
	}
	return false
}

var programTable = map[Network]Programs{
	MainnetBeta: {
		Swap: solana.MustPublicKeyFromBase58("9qvG1zUp8xF1Bi4m6UdRNby1BAAuaDrUxSpv4CmRRMjL"),
	},
	Testnet: {
		Swap: solana.MustPublicKeyFromBase58("2n2dsFSgmPcZ8jkmBZLGUM2nzuFqcBGQ3JEEj6RJJcEg"),
		Legacy: []solana.PublicKey{
			solana.MustPublicKeyFromBase58("9tdctNJuFsYZ6VrKfKEuwwbPp4SFdFw3jYBZU8QUtzeX"),
			solana.MustPublicKeyFromBase58("CrRvVBS4Hmj47TPU3cMukurpmCUYUrdHYxTQBxncBGqw"),
		},
	},
	Devnet: {
		Swap: solana.MustPublicKeyFromBase58("BSfTAcBdqmvX5iE2PW88WFNNp2DHhLUaBKk5WrnxVkcJ"),
		Legacy: []solana.PublicKey{
			solana.MustPublicKeyFromBase58("H1E1G7eD5Rrcy43xvDxXCsjkRggz7MWNMLGJ8YNzJ8PM"),
			solana.MustPublicKeyFromBase58("CMoteLxSPVPoc7Drcggf3QPg3ue8WPpxYyZTg77UGqHo"),
			solana.MustPublicKeyFromBase58("EEuPz4iZA5reBUeZj6x1VzoiHfYeHMppSCnHZasRFhYo"),
		},
	},
	Localnet: {
		Swap: solana.MustPublicKeyFromBase58("5rdpyt5iGfr68qt28hkefcFyF4WtyhTwqKDmHSBG8GZx"),
	},
}

// ProgramsFor returns the program ids deployed on network.
func ProgramsFor(network Network) (Programs, error) {
	p, ok := programTable[Network(strings.ToLower(string(network)))]
	if !ok {
		return Programs{}, fmt.Errorf("unknown network %q", network)
	}
	p.Network = network
	p.Token = solana.TokenProgramID
	p.Legacy = append([]solana.PublicKey(nil), p.Legacy...)
	return p, nil
}
