package core

import (
	"context"
	"errors"
)

// ChainTip is the head of the chain as reported by the node.
type ChainTip struct {
	Height          uint64 `json:"height"`
	LastBlockPushed string `json:"last_block_pushed"`
	PrevBlockToLast string `json:"prev_block_to_last"`
	TotalDifficulty uint64 `json:"total_difficulty"`
}

// TxKernel is the on-chain proof of a transaction, located by its excess.
type TxKernel struct {
	Features   string `json:"features"`
	Fee        uint64 `json:"fee"`
	LockHeight uint64 `json:"lock_height"`
	Excess     string `json:"excess"`
	ExcessSig  string `json:"excess_sig"`
}

// LocatedKernel is a kernel together with the height of the block that
// contains it.
type LocatedKernel struct {
	TxKernel TxKernel `json:"tx_kernel"`
	Height   uint64   `json:"height"`
	MMRIndex uint64   `json:"mmr_index"`
}

// ErrKernelNotFound means the kernel is not on the chain in the searched
// height range, i.e. the transaction has not been mined yet.
var ErrKernelNotFound = errors.New("kernel not found on chain")

// ChainClient reads chain state from an external full node.
type ChainClient interface {
	Tip(ctx context.Context) (*ChainTip, error)
	// Kernel locates a kernel by excess, searching heights in
	// [minHeight, maxHeight]; zero bounds leave the range open. Returns
	// ErrKernelNotFound when the kernel is not mined in that range.
	Kernel(ctx context.Context, excess string, minHeight, maxHeight uint64) (*LocatedKernel, error)
}
