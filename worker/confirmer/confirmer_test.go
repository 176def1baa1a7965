package confirmer

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/grinex/grinex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	tip     *core.ChainTip
	tipErr  error
	kernels map[string]*core.LocatedKernel
	broken  map[string]error

	tipCalls int
}

func (f *fakeChain) Tip(ctx context.Context) (*core.ChainTip, error) {
	f.tipCalls++
	if f.tipErr != nil {
		return nil, f.tipErr
	}

	return f.tip, nil
}

func (f *fakeChain) Kernel(ctx context.Context, excess string, minHeight, maxHeight uint64) (*core.LocatedKernel, error) {
	if err, ok := f.broken[excess]; ok {
		return nil, err
	}

	located, ok := f.kernels[excess]
	if !ok {
		return nil, core.ErrKernelNotFound
	}

	return located, nil
}

type fakeWallet struct {
	core.WalletClient

	entries map[string][]*core.TxLogEntry
	refresh []bool
}

func (f *fakeWallet) RetrieveTxs(ctx context.Context, txSlateID string, refresh bool) ([]*core.TxLogEntry, error) {
	f.refresh = append(f.refresh, refresh)
	return f.entries[txSlateID], nil
}

type fakeLedger struct {
	core.Ledger

	confirmations map[string]int
	history       []int
}

func (f *fakeLedger) SetConfirmations(ctx context.Context, transfer *core.Transfer, confirmations int) error {
	if f.confirmations == nil {
		f.confirmations = map[string]int{}
	}

	f.confirmations[transfer.TxSlateID] = confirmations
	f.history = append(f.history, confirmations)
	return nil
}

type fakeTransfers struct {
	core.TransferStore

	unconfirmed []*core.Transfer
	excesses    map[string]string
}

func (f *fakeTransfers) ListUnconfirmed(ctx context.Context, max int) ([]*core.Transfer, error) {
	return f.unconfirmed, nil
}

func (f *fakeTransfers) SetKernelExcess(ctx context.Context, transfer *core.Transfer, excess string) error {
	if f.excesses == nil {
		f.excesses = map[string]string{}
	}

	f.excesses[transfer.TxSlateID] = excess
	return nil
}

type fakeProperties struct {
	values map[string]any
}

func (f *fakeProperties) Get(ctx context.Context, key string, value any) error {
	if v, ok := f.values[key]; ok {
		*value.(*uint64) = v.(uint64)
	}

	return nil
}

func (f *fakeProperties) Set(ctx context.Context, key string, value any) error {
	if f.values == nil {
		f.values = map[string]any{}
	}

	f.values[key] = value
	return nil
}

func newConfirmer(chain *fakeChain, wallets *fakeWallet, ledgerz *fakeLedger, transfers *fakeTransfers, properties *fakeProperties) *Confirmer {
	return New(transfers, ledgerz, wallets, chain, properties, slog.Default(), Config{RequiredConfirmations: 10})
}

func TestSweepAdvancesConfirmations(t *testing.T) {
	chain := &fakeChain{
		tip: &core.ChainTip{Height: 1000},
		kernels: map[string]*core.LocatedKernel{
			"08aa": {Height: 996},
		},
	}
	transfers := &fakeTransfers{
		unconfirmed: []*core.Transfer{
			{TxSlateID: "slate-1", KernelExcess: "08aa", Status: core.TransferStatusAwaitingConfirmation},
		},
	}
	ledgerz := &fakeLedger{}
	properties := &fakeProperties{}

	w := newConfirmer(chain, &fakeWallet{}, ledgerz, transfers, properties)

	require.NoError(t, w.run(context.Background()))
	assert.Equal(t, 5, ledgerz.confirmations["slate-1"])
	assert.EqualValues(t, 1000, properties.values[propertyLastHeight])
}

func TestSweepBackfillsKernelExcess(t *testing.T) {
	chain := &fakeChain{
		tip: &core.ChainTip{Height: 1000},
		kernels: map[string]*core.LocatedKernel{
			"08bb": {Height: 1000},
		},
	}
	transfers := &fakeTransfers{
		unconfirmed: []*core.Transfer{
			{TxSlateID: "slate-2", Status: core.TransferStatusAwaitingConfirmation},
		},
	}
	wallets := &fakeWallet{
		entries: map[string][]*core.TxLogEntry{
			"slate-2": {
				{TxSlateID: "slate-2"},
				{TxSlateID: "slate-2", KernelExcess: "08bb", Confirmed: true, ConfirmationTs: "2026-08-30T11:04:10Z"},
			},
		},
	}
	ledgerz := &fakeLedger{}

	w := newConfirmer(chain, wallets, ledgerz, transfers, &fakeProperties{})

	require.NoError(t, w.run(context.Background()))
	assert.Equal(t, "08bb", transfers.excesses["slate-2"])
	assert.Equal(t, 1, ledgerz.confirmations["slate-2"])
	assert.Equal(t, []bool{false}, wallets.refresh)
}

func TestSweepIgnoresUnconfirmedWalletRecord(t *testing.T) {
	chain := &fakeChain{
		tip: &core.ChainTip{Height: 1000},
		kernels: map[string]*core.LocatedKernel{
			"08bc": {Height: 1000},
		},
	}
	transfers := &fakeTransfers{
		unconfirmed: []*core.Transfer{
			{TxSlateID: "slate-8", Status: core.TransferStatusAwaitingConfirmation},
		},
	}
	wallets := &fakeWallet{
		entries: map[string][]*core.TxLogEntry{
			"slate-8": {
				{TxSlateID: "slate-8", KernelExcess: "08bc"},
			},
		},
	}
	ledgerz := &fakeLedger{}

	w := newConfirmer(chain, wallets, ledgerz, transfers, &fakeProperties{})

	require.NoError(t, w.run(context.Background()))
	assert.Empty(t, transfers.excesses)
	assert.Empty(t, ledgerz.confirmations)
}

func TestSweepWaitsForUnknownExcess(t *testing.T) {
	chain := &fakeChain{tip: &core.ChainTip{Height: 1000}}
	transfers := &fakeTransfers{
		unconfirmed: []*core.Transfer{
			{TxSlateID: "slate-3", Status: core.TransferStatusAwaitingConfirmation},
		},
	}
	ledgerz := &fakeLedger{}

	w := newConfirmer(chain, &fakeWallet{}, ledgerz, transfers, &fakeProperties{})

	require.NoError(t, w.run(context.Background()))
	assert.Empty(t, transfers.excesses)
	assert.Empty(t, ledgerz.confirmations)
}

func TestSweepSkipsKernelAboveCapturedTip(t *testing.T) {
	chain := &fakeChain{
		tip: &core.ChainTip{Height: 1000},
		kernels: map[string]*core.LocatedKernel{
			"08cc": {Height: 1002},
		},
	}
	transfers := &fakeTransfers{
		unconfirmed: []*core.Transfer{
			{TxSlateID: "slate-4", KernelExcess: "08cc", Status: core.TransferStatusAwaitingConfirmation},
		},
	}
	ledgerz := &fakeLedger{}

	w := newConfirmer(chain, &fakeWallet{}, ledgerz, transfers, &fakeProperties{})

	require.NoError(t, w.run(context.Background()))
	assert.Empty(t, ledgerz.confirmations)
}

func TestTipFailureAbortsSweep(t *testing.T) {
	chain := &fakeChain{tipErr: errors.New("node down")}
	transfers := &fakeTransfers{
		unconfirmed: []*core.Transfer{
			{TxSlateID: "slate-5", KernelExcess: "08dd", Status: core.TransferStatusAwaitingConfirmation},
		},
	}
	ledgerz := &fakeLedger{}
	properties := &fakeProperties{}

	w := newConfirmer(chain, &fakeWallet{}, ledgerz, transfers, properties)

	require.Error(t, w.run(context.Background()))
	assert.Empty(t, ledgerz.confirmations)
	assert.Empty(t, properties.values)
}

func TestSweepIdempotentAtUnchangedTip(t *testing.T) {
	chain := &fakeChain{
		tip: &core.ChainTip{Height: 1000},
		kernels: map[string]*core.LocatedKernel{
			"08aa": {Height: 996},
		},
	}
	transfer := &core.Transfer{TxSlateID: "slate-1", KernelExcess: "08aa", Status: core.TransferStatusAwaitingConfirmation}
	transfers := &fakeTransfers{unconfirmed: []*core.Transfer{transfer}}
	ledgerz := &fakeLedger{}
	properties := &fakeProperties{}

	w := newConfirmer(chain, &fakeWallet{}, ledgerz, transfers, properties)

	require.NoError(t, w.run(context.Background()))
	require.NoError(t, w.run(context.Background()))

	assert.Equal(t, []int{5}, ledgerz.history)
	assert.Equal(t, 5, ledgerz.confirmations["slate-1"])
	assert.Equal(t, core.TransferStatusAwaitingConfirmation, transfer.Status)
	assert.Equal(t, 2, chain.tipCalls)
}

func TestSweepRecountsWhenTipAdvances(t *testing.T) {
	chain := &fakeChain{
		tip: &core.ChainTip{Height: 1000},
		kernels: map[string]*core.LocatedKernel{
			"08aa": {Height: 996},
		},
	}
	transfers := &fakeTransfers{
		unconfirmed: []*core.Transfer{
			{TxSlateID: "slate-1", KernelExcess: "08aa", Status: core.TransferStatusAwaitingConfirmation},
		},
	}
	ledgerz := &fakeLedger{}
	properties := &fakeProperties{}

	w := newConfirmer(chain, &fakeWallet{}, ledgerz, transfers, properties)

	require.NoError(t, w.run(context.Background()))
	chain.tip = &core.ChainTip{Height: 1001}
	require.NoError(t, w.run(context.Background()))

	assert.Equal(t, []int{5, 6}, ledgerz.history)
	assert.EqualValues(t, 1001, properties.values[propertyLastHeight])
}

func TestSweepIsolatesTransferFailures(t *testing.T) {
	chain := &fakeChain{
		tip: &core.ChainTip{Height: 1000},
		kernels: map[string]*core.LocatedKernel{
			"08ff": {Height: 991},
		},
		broken: map[string]error{
			"08ee": errors.New("kernel lookup timed out"),
		},
	}
	transfers := &fakeTransfers{
		unconfirmed: []*core.Transfer{
			{TxSlateID: "slate-6", KernelExcess: "08ee", Status: core.TransferStatusAwaitingConfirmation},
			{TxSlateID: "slate-7", KernelExcess: "08ff", Status: core.TransferStatusAwaitingConfirmation},
		},
	}
	ledgerz := &fakeLedger{}
	properties := &fakeProperties{}

	w := newConfirmer(chain, &fakeWallet{}, ledgerz, transfers, properties)

	require.NoError(t, w.run(context.Background()))
	assert.Equal(t, 10, ledgerz.confirmations["slate-7"])
	assert.NotContains(t, ledgerz.confirmations, "slate-6")
	assert.EqualValues(t, 1000, properties.values[propertyLastHeight])
}
