package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"splitpay/core/events"
	"splitpay/core/state"
	"splitpay/native/bank"
	"splitpay/native/splitpay"
	"splitpay/observability/metrics"
	"splitpay/observability/otel"
)

// Error kinds reported for host failures that are not ledger errors.
const (
	CodeInsufficientFunds = "InsufficientFunds"
	CodeInvalidRecipient  = "InvalidRecipient"
	CodeBalanceOverflow   = "BalanceOverflow"
	CodeFaucetDisabled    = "FaucetDisabled"
)

// ErrFaucetDisabled is returned by Credit unless the faucet was enabled.
var ErrFaucetDisabled = errors.New("runtime: faucet disabled")

// ErrorCode maps err to the kind reported to callers. Ledger errors use the
// splitpay kinds; vault errors get their own.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, bank.ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, bank.ErrInvalidRecipient):
		return CodeInvalidRecipient
	case errors.Is(err, bank.ErrBalanceOverflow):
		return CodeBalanceOverflow
	case errors.Is(err, ErrFaucetDisabled):
		return CodeFaucetDisabled
	default:
		return splitpay.Code(err)
	}
}

// Runtime hosts the ledger. It serialises calls, reads the clock once per
// call, commits the state journal on success and discards it on failure.
// Events reach the configured emitter only after a successful commit.
type Runtime struct {
	stateMu sync.Mutex
	state   *state.Manager
	engine  *splitpay.Engine
	vault   *bank.Vault
	buffer  *events.Buffer
	sink    events.Emitter
	clock   func() time.Time
	logger  *slog.Logger
	metrics *metrics.SplitpayMetrics
	tracer  trace.Tracer
	faucet  bool
}

// NewRuntime wires an engine and a vault over manager.
func NewRuntime(manager *state.Manager) *Runtime {
	buffer := &events.Buffer{}
	vault := bank.NewVault(manager)
	engine := splitpay.NewEngine()
	engine.SetState(manager)
	engine.SetHost(vault)
	engine.SetEmitter(buffer)
	return &Runtime{
		state:   manager,
		engine:  engine,
		vault:   vault,
		buffer:  buffer,
		sink:    events.NoopEmitter{},
		clock:   time.Now,
		logger:  slog.Default(),
		metrics: metrics.Splitpay(),
		tracer:  otel.Tracer("splitpay/core"),
	}
}

// SetEmitter configures where committed events are delivered.
func (r *Runtime) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	r.sink = emitter
}

// SetClock overrides the time source. Each call reads it exactly once.
func (r *Runtime) SetClock(clock func() time.Time) {
	if clock == nil {
		clock = time.Now
	}
	r.clock = clock
}

// SetLogger configures the call logger.
func (r *Runtime) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.logger = logger
}

// SetMetrics configures the metric set. nil disables metrics.
func (r *Runtime) SetMetrics(m *metrics.SplitpayMetrics) { r.metrics = m }

// EnableFaucet allows Credit to mint host balances.
func (r *Runtime) EnableFaucet(enabled bool) { r.faucet = enabled }

// FaucetEnabled reports whether Credit is available.
func (r *Runtime) FaucetEnabled() bool { return r.faucet }

// Pool returns the pooled account the vault holds ledger funds in.
func (r *Runtime) Pool() [20]byte { return r.vault.Pool() }

func (r *Runtime) bindClock() {
	now := r.clock().Unix()
	r.engine.SetNowFunc(func() int64 { return now })
}

// exec runs fn as one atomic call.
func (r *Runtime) exec(ctx context.Context, op string, fn func() error) error {
	_, span := r.tracer.Start(ctx, "splitpay."+op)
	defer span.End()
	start := time.Now()

	r.stateMu.Lock()
	r.bindClock()
	err := fn()
	if err == nil {
		if cerr := r.state.Commit(); cerr != nil {
			err = fmt.Errorf("commit: %w", cerr)
		}
	}
	if err != nil {
		r.state.Discard()
		r.buffer.Discard()
	} else {
		r.publish()
	}
	r.stateMu.Unlock()

	code := ErrorCode(err)
	r.metrics.ObserveCall(op, code, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		r.logger.Warn("splitpay call rejected", "op", op, "code", code, "error", err)
		return err
	}
	r.logger.Debug("splitpay call committed", "op", op, "elapsed", time.Since(start))
	return nil
}

// publish hands buffered events to the sink and refreshes ledger gauges.
// The caller holds stateMu.
func (r *Runtime) publish() {
	r.buffer.Flush(events.MultiEmitter{metricsEmitter{r.metrics}, r.sink})
	if r.metrics == nil {
		return
	}
	pool, err := r.vault.ContractBalance()
	if err != nil {
		r.logger.Error("read pool balance", "error", err)
		return
	}
	list, err := r.engine.Beneficiaries()
	if err != nil {
		r.logger.Error("read beneficiaries", "error", err)
		return
	}
	paused, err := r.engine.IsPaused()
	if err != nil {
		r.logger.Error("read pause flag", "error", err)
		return
	}
	r.metrics.SetLedger(pool, len(list), paused)
}

// view runs a read-only call under the state lock.
func (r *Runtime) view(ctx context.Context, op string, fn func() error) error {
	_, span := r.tracer.Start(ctx, "splitpay."+op, trace.WithAttributes(attribute.Bool("readonly", true)))
	defer span.End()
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.bindClock()
	if err := fn(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorCode(err))
		return err
	}
	return nil
}

type metricsEmitter struct {
	m *metrics.SplitpayMetrics
}

func (e metricsEmitter) Emit(evt events.Event) {
	if e.m == nil || evt == nil {
		return
	}
	e.m.RecordEvent(evt.EventType())
	rendered := events.Render(evt)
	switch rendered.Type {
	case splitpay.EventTypeFundsReceived:
		e.m.AddReceived(parseAmount(rendered.Attributes["amount"]))
	case splitpay.EventTypeWithdrawal:
		e.m.AddWithdrawn("self", parseAmount(rendered.Attributes["amount"]))
	case splitpay.EventTypeDelegatedWithdrawal:
		e.m.AddWithdrawn("delegated", parseAmount(rendered.Attributes["amount"]))
	case splitpay.EventTypeBeneficiaryRemoved:
		e.m.AddWithdrawn("removal", parseAmount(rendered.Attributes["paidOut"]))
	}
}

func parseAmount(raw string) *uint256.Int {
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return new(uint256.Int)
	}
	return v
}

// Pay attaches amount from payer to the pool and distributes it.
func (r *Runtime) Pay(ctx context.Context, from [20]byte, amount *uint256.Int) error {
	return r.exec(ctx, "pay", func() error {
		if amount == nil {
			amount = new(uint256.Int)
		}
		if !splitpay.ValidAmount(amount) {
			return splitpay.ErrInvalidAmount
		}
		paused, err := r.engine.IsPaused()
		if err != nil {
			return err
		}
		if paused {
			return splitpay.ErrContractPaused
		}
		if err := r.vault.Attach(from, amount); err != nil {
			return err
		}
		return r.engine.ReceivePayment(from, amount)
	})
}

// Credit mints amount into addr when the faucet is enabled.
func (r *Runtime) Credit(ctx context.Context, addr [20]byte, amount *uint256.Int) error {
	return r.exec(ctx, "credit", func() error {
		if !r.faucet {
			return ErrFaucetDisabled
		}
		return r.vault.Credit(addr, amount)
	})
}

// AddBeneficiary registers account with share percent.
func (r *Runtime) AddBeneficiary(ctx context.Context, caller, account [20]byte, share uint8) error {
	return r.exec(ctx, "add_beneficiary", func() error {
		return r.engine.AddBeneficiary(caller, account, share)
	})
}

// RemoveBeneficiary removes account and pays out its pending balance.
func (r *Runtime) RemoveBeneficiary(ctx context.Context, caller, account [20]byte) error {
	return r.exec(ctx, "remove_beneficiary", func() error {
		return r.engine.RemoveBeneficiary(caller, account)
	})
}

// Approve sets the allowance of spender over caller's pending balance.
func (r *Runtime) Approve(ctx context.Context, caller, spender [20]byte, amount *uint256.Int, expiresAt *uint64) error {
	return r.exec(ctx, "approve", func() error {
		return r.engine.Approve(caller, spender, amount, expiresAt)
	})
}

// RevokeApproval removes the allowance caller granted to spender.
func (r *Runtime) RevokeApproval(ctx context.Context, caller, spender [20]byte) error {
	return r.exec(ctx, "revoke_approval", func() error {
		return r.engine.RevokeApproval(caller, spender)
	})
}

// Withdraw pays amount of caller's pending balance to caller.
func (r *Runtime) Withdraw(ctx context.Context, caller [20]byte, amount *uint256.Int) error {
	return r.exec(ctx, "withdraw", func() error {
		return r.engine.Withdraw(caller, amount)
	})
}

// WithdrawAll pays caller's full pending balance to caller.
func (r *Runtime) WithdrawAll(ctx context.Context, caller [20]byte) error {
	return r.exec(ctx, "withdraw_all", func() error {
		return r.engine.WithdrawAll(caller)
	})
}

// WithdrawFrom pays amount of owner's pending balance to spender.
func (r *Runtime) WithdrawFrom(ctx context.Context, spender, owner [20]byte, amount *uint256.Int) error {
	return r.exec(ctx, "withdraw_from", func() error {
		return r.engine.WithdrawFrom(spender, owner, amount)
	})
}

// AddManager grants the manager role to target.
func (r *Runtime) AddManager(ctx context.Context, caller, target [20]byte) error {
	return r.exec(ctx, "add_manager", func() error {
		return r.engine.AddManager(caller, target)
	})
}

// RemoveManager revokes the manager role from target.
func (r *Runtime) RemoveManager(ctx context.Context, caller, target [20]byte) error {
	return r.exec(ctx, "remove_manager", func() error {
		return r.engine.RemoveManager(caller, target)
	})
}

// Pause engages the pause gate.
func (r *Runtime) Pause(ctx context.Context, caller [20]byte) error {
	return r.exec(ctx, "pause", func() error { return r.engine.Pause(caller) })
}

// Unpause releases the pause gate.
func (r *Runtime) Unpause(ctx context.Context, caller [20]byte) error {
	return r.exec(ctx, "unpause", func() error { return r.engine.Unpause(caller) })
}

// TransferOwnership hands the owner role to next.
func (r *Runtime) TransferOwnership(ctx context.Context, caller, next [20]byte) error {
	return r.exec(ctx, "transfer_ownership", func() error {
		return r.engine.TransferOwnership(caller, next)
	})
}

// Owner returns the current owner.
func (r *Runtime) Owner(ctx context.Context) (owner [20]byte, err error) {
	err = r.view(ctx, "owner", func() error {
		owner, err = r.engine.Owner()
		return err
	})
	return owner, err
}

// IsManager reports whether account holds the manager role.
func (r *Runtime) IsManager(ctx context.Context, account [20]byte) (ok bool, err error) {
	err = r.view(ctx, "is_manager", func() error {
		ok, err = r.engine.IsManager(account)
		return err
	})
	return ok, err
}

// Beneficiaries lists every beneficiary in insertion order.
func (r *Runtime) Beneficiaries(ctx context.Context) (list []*splitpay.Beneficiary, err error) {
	err = r.view(ctx, "beneficiaries", func() error {
		list, err = r.engine.Beneficiaries()
		return err
	})
	return list, err
}

// Beneficiary returns the record for account.
func (r *Runtime) Beneficiary(ctx context.Context, account [20]byte) (b *splitpay.Beneficiary, ok bool, err error) {
	err = r.view(ctx, "beneficiary", func() error {
		b, ok, err = r.engine.Beneficiary(account)
		return err
	})
	return b, ok, err
}

// Allowance returns the live allowance of spender over owner.
func (r *Runtime) Allowance(ctx context.Context, owner, spender [20]byte) (amount *uint256.Int, err error) {
	err = r.view(ctx, "allowance", func() error {
		amount, err = r.engine.Allowance(owner, spender)
		return err
	})
	return amount, err
}

// ApprovalRecord returns the stored approval, expired or not.
func (r *Runtime) ApprovalRecord(ctx context.Context, owner, spender [20]byte) (a *splitpay.Approval, ok bool, err error) {
	err = r.view(ctx, "approval", func() error {
		a, ok, err = r.engine.ApprovalRecord(owner, spender)
		return err
	})
	return a, ok, err
}

// TotalShares returns the summed share percentage.
func (r *Runtime) TotalShares(ctx context.Context) (total uint8, err error) {
	err = r.view(ctx, "total_shares", func() error {
		total, err = r.engine.TotalShares()
		return err
	})
	return total, err
}

// IsPaused reports the pause gate.
func (r *Runtime) IsPaused(ctx context.Context) (paused bool, err error) {
	err = r.view(ctx, "is_paused", func() error {
		paused, err = r.engine.IsPaused()
		return err
	})
	return paused, err
}

// Stats returns the reporting counters and the pooled balance.
func (r *Runtime) Stats(ctx context.Context) (stats *splitpay.Stats, err error) {
	err = r.view(ctx, "stats", func() error {
		stats, err = r.engine.Stats()
		return err
	})
	return stats, err
}

// AccountBalance returns the host balance of addr.
func (r *Runtime) AccountBalance(ctx context.Context, addr [20]byte) (balance *uint256.Int, err error) {
	err = r.view(ctx, "account_balance", func() error {
		balance, err = r.vault.AccountBalance(addr)
		return err
	})
	return balance, err
}
