package core

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	errs "tokensale/core/errors"
	"tokensale/core/events"
	"tokensale/core/state"
	"tokensale/native/access"
	nativecommon "tokensale/native/common"
	"tokensale/native/referral"
	"tokensale/native/sale"
	"tokensale/native/token"
	"tokensale/native/vesting"
	"tokensale/observability/metrics"
	telemetry "tokensale/observability/otel"
	"tokensale/storage"
)

var ErrUnknownEscrow = errs.New(errs.ErrNotFound, "vesting: unknown escrow")

// Clock supplies the current time. It is read once per entry point.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Node is the central controller, wiring all components together. Every
// entry point runs to completion under one lock and inside one state
// transaction.
type Node struct {
	mu      sync.Mutex
	db      storage.Database
	state   *state.Manager
	symbol  string
	escrows []vesting.Config
	guard   *vesting.Guard
	clock   Clock
	logger  *slog.Logger
	metrics *metrics.SaleMetrics
	tracer  trace.Tracer
	otlp    *telemetry.Instruments
}

// Option customises a Node.
type Option func(*Node)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(n *Node) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink. Nil disables metrics.
func WithMetrics(m *metrics.SaleMetrics) Option {
	return func(n *Node) { n.metrics = m }
}

// WithTracer sets the tracer used for entry point spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(n *Node) {
		if tracer != nil {
			n.tracer = tracer
		}
	}
}

// WithInstruments sets the OTLP instruments. Nil disables them.
func WithInstruments(i *telemetry.Instruments) Option {
	return func(n *Node) { n.otlp = i }
}

// WithEmitter forwards every committed event to emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(n *Node) { n.state.SetEmitter(n.observeEvents(emitter)) }
}

// WithTokenSymbol sets the symbol stamped on token events.
func WithTokenSymbol(symbol string) Option {
	return func(n *Node) { n.symbol = symbol }
}

// NewNode opens a node over db serving the supplied escrows.
func NewNode(db storage.Database, escrows []vesting.Config, opts ...Option) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database must not be nil")
	}
	seen := make(map[string]struct{}, len(escrows))
	for _, cfg := range escrows {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("core: escrow %q: %w", cfg.ID, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("core: duplicate escrow %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
	}
	otlp, err := telemetry.NewInstruments(nil)
	if err != nil {
		return nil, fmt.Errorf("core: otel instruments: %w", err)
	}
	n := &Node{
		db:      db,
		state:   state.NewManager(db),
		symbol:  "SALE",
		escrows: append([]vesting.Config(nil), escrows...),
		guard:   &vesting.Guard{},
		clock:   systemClock{},
		logger:  slog.Default(),
		metrics: metrics.Sale(),
		tracer:  telemetry.Tracer(),
		otlp:    otlp,
	}
	n.state.SetEmitter(n.observeEvents(nil))
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

func (n *Node) observeEvents(next events.Emitter) events.Emitter {
	return events.EmitterFunc(func(evt events.Event) {
		n.metrics.ObserveEvent(evt.EventType())
		if next != nil {
			next.Emit(evt)
		}
	})
}

// Escrows returns the configured escrow instances.
func (n *Node) Escrows() []vesting.Config {
	return append([]vesting.Config(nil), n.escrows...)
}

func (n *Node) now() uint64 {
	ts := n.clock.Now().Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// engines binds every module to one transaction.
type engines struct {
	tx       *state.Tx
	token    *token.Engine
	access   *access.Registry
	pauses   *nativecommon.Pauses
	referral *referral.Engine
	sale     *sale.Engine
	guard    *vesting.Guard
}

func (n *Node) bind(tx *state.Tx) engines {
	tok := token.NewEngine(tx, n.symbol)
	refs := referral.NewEngine(tx)
	return engines{
		tx:       tx,
		token:    tok,
		access:   access.NewRegistry(tx),
		pauses:   nativecommon.NewPauses(tx),
		referral: refs,
		sale:     sale.NewEngine(tx, tok, nil, refs),
		guard:    n.guard,
	}
}

func (e engines) vesting(cfg vesting.Config) *vesting.Engine {
	return vesting.NewEngine(e.tx, e.token, e.guard, cfg)
}

func (n *Node) escrow(id string) (vesting.Config, error) {
	for _, cfg := range n.escrows {
		if cfg.ID == id {
			return cfg, nil
		}
	}
	return vesting.Config{}, errs.Wrapf(ErrUnknownEscrow, "%q", id)
}

// execute runs fn inside one serialised state transaction.
func (n *Node) execute(ctx context.Context, op string, caller common.Address, fn func(e engines, now uint64) error) error {
	ctx, span := n.tracer.Start(ctx, "tokensale."+op, trace.WithAttributes(attribute.String("caller", caller.Hex())))
	defer span.End()

	n.mu.Lock()
	defer n.mu.Unlock()

	started := time.Now()
	now := n.now()
	err := n.state.Update(func(tx *state.Tx) error {
		return fn(n.bind(tx), now)
	})
	kind := errs.KindOf(err)
	elapsed := time.Since(started)
	n.metrics.ObserveOperation(op, kind, elapsed)
	n.otlp.RecordOperation(ctx, op, kind, elapsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		n.logger.Warn("operation rejected", "op", op, "caller", caller.Hex(), "kind", kind, "error", err)
		return err
	}
	n.logger.Info("operation committed", "op", op, "caller", caller.Hex(), "now", now)
	return nil
}

// view runs fn against a read-only transaction.
func (n *Node) view(fn func(e engines, now uint64) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	return n.state.View(func(tx *state.Tx) error {
		return fn(n.bind(tx), now)
	})
}

// publishTotals exports committed counters. It must only be called once the
// transaction that produced them has committed.
func (n *Node) publishTotals(counters sale.Counters) {
	n.metrics.SetTotals(counters.TokensSold, counters.FundsRaisedUSD)
}

// Purchase sizes and settles a value-bearing purchase for beneficiary.
func (n *Node) Purchase(ctx context.Context, caller, beneficiary common.Address, value *big.Int, channel string) (sale.Receipt, error) {
	var (
		receipt  sale.Receipt
		counters sale.Counters
		decimals uint8
	)
	err := n.execute(ctx, "purchase", caller, func(e engines, now uint64) error {
		if err := nativecommon.Guard(e.pauses, nativecommon.ModuleSale); err != nil {
			return err
		}
		params, err := e.sale.Params()
		if err != nil {
			return err
		}
		decimals = params.Decimals
		if params.RequireWhitelist {
			if err := access.Require(e.access, caller, access.RoleWhitelisted); err != nil {
				return err
			}
		}
		receipt, err = e.sale.Purchase(sale.PurchaseRequest{
			Buyer:       caller,
			Beneficiary: beneficiary,
			Value:       value,
			Channel:     channel,
		}, now)
		if err != nil {
			return err
		}
		counters, err = e.sale.Counters()
		return err
	})
	if err != nil {
		return sale.Receipt{}, err
	}
	n.publishTotals(counters)
	n.otlp.RecordPurchase(ctx, receipt.Stage.ID, receipt.Total(), decimals)
	return receipt, nil
}

// DistributeManual credits beneficiary without pricing.
func (n *Node) DistributeManual(ctx context.Context, caller, beneficiary common.Address, amount *big.Int) error {
	var counters sale.Counters
	err := n.execute(ctx, "distribute", caller, func(e engines, _ uint64) error {
		if err := access.Require(e.access, caller, access.RoleOperator); err != nil {
			return err
		}
		if err := nativecommon.Guard(e.pauses, nativecommon.ModuleSale); err != nil {
			return err
		}
		if err := e.sale.DistributeManual(caller, beneficiary, amount); err != nil {
			return err
		}
		var err error
		counters, err = e.sale.Counters()
		return err
	})
	if err != nil {
		return err
	}
	n.publishTotals(counters)
	return nil
}

// SetRate replaces the value to USD conversion rate.
func (n *Node) SetRate(ctx context.Context, caller common.Address, rate *big.Int) error {
	return n.execute(ctx, "set_rate", caller, func(e engines, _ uint64) error {
		if err := access.Require(e.access, caller, access.RoleOwner); err != nil {
			return err
		}
		return e.sale.SetRate(caller, rate)
	})
}

// ConfigureStage reschedules the final stage and returns its end. Escrows
// that follow the sale end are moved to it in the same transaction.
func (n *Node) ConfigureStage(ctx context.Context, caller common.Address, start, length uint64) (uint64, error) {
	var end uint64
	err := n.execute(ctx, "configure_stage", caller, func(e engines, now uint64) error {
		if err := access.Require(e.access, caller, access.RoleOwner); err != nil {
			return err
		}
		var err error
		end, err = e.sale.ConfigureStage(caller, now, start, length)
		if err != nil {
			return err
		}
		for _, cfg := range n.escrows {
			if _, err := e.vesting(cfg).FollowSaleEnd(end, now); err != nil {
				return fmt.Errorf("escrow %s: %w", cfg.ID, err)
			}
		}
		return nil
	})
	return end, err
}

// BurnUnsold destroys the remaining inventory once the sale has closed.
func (n *Node) BurnUnsold(ctx context.Context, caller common.Address) (*big.Int, error) {
	var burned *big.Int
	err := n.execute(ctx, "burn_unsold", caller, func(e engines, now uint64) error {
		if err := access.Require(e.access, caller, access.RoleOwner); err != nil {
			return err
		}
		var err error
		burned, err = e.sale.BurnUnsold(caller, now)
		return err
	})
	return burned, err
}

func (n *Node) referralOp(ctx context.Context, op string, caller common.Address, fn func(r *referral.Engine) error) error {
	return n.execute(ctx, op, caller, func(e engines, _ uint64) error {
		if err := access.Require(e.access, caller, access.RoleOperator); err != nil {
			return err
		}
		if err := nativecommon.Guard(e.pauses, nativecommon.ModuleReferral); err != nil {
			return err
		}
		return fn(e.referral)
	})
}

// SetReferralLink registers or updates owner's link.
func (n *Node) SetReferralLink(ctx context.Context, caller, owner common.Address, inviteeBps, ownerBps uint32) error {
	return n.referralOp(ctx, "referral_link", caller, func(r *referral.Engine) error {
		return r.SetLink(owner, inviteeBps, ownerBps)
	})
}

// SetReferralBanner registers or updates a banner.
func (n *Node) SetReferralBanner(ctx context.Context, caller common.Address, bannerID string, inviteeBps uint32) error {
	return n.referralOp(ctx, "referral_banner", caller, func(r *referral.Engine) error {
		return r.SetBanner(bannerID, inviteeBps)
	})
}

// AddReferralLinkInvite binds invitee to owner's link.
func (n *Node) AddReferralLinkInvite(ctx context.Context, caller, owner, invitee common.Address) error {
	return n.referralOp(ctx, "referral_invite_link", caller, func(r *referral.Engine) error {
		return r.AddLinkInvite(owner, invitee)
	})
}

// AddReferralBannerInvite binds invitee to a banner.
func (n *Node) AddReferralBannerInvite(ctx context.Context, caller common.Address, bannerID string, invitee common.Address) error {
	return n.referralOp(ctx, "referral_invite_banner", caller, func(r *referral.Engine) error {
		return r.AddBannerInvite(bannerID, invitee)
	})
}

func (n *Node) vestingOp(ctx context.Context, op string, caller common.Address, role access.Role, escrowID string, fn func(v *vesting.Engine, now uint64) error) error {
	return n.execute(ctx, op, caller, func(e engines, now uint64) error {
		if role != "" {
			if err := access.Require(e.access, caller, role); err != nil {
				return err
			}
		}
		if err := nativecommon.Guard(e.pauses, nativecommon.ModuleVesting); err != nil {
			return err
		}
		cfg, err := n.escrow(escrowID)
		if err != nil {
			return err
		}
		return fn(e.vesting(cfg), now)
	})
}

// SetActivation schedules the start of an escrow's releases.
func (n *Node) SetActivation(ctx context.Context, caller common.Address, escrowID string, start uint64) error {
	return n.vestingOp(ctx, "vesting_activate", caller, access.RoleOwner, escrowID, func(v *vesting.Engine, now uint64) error {
		return v.SetActivation(start, now)
	})
}

// AddParticipant assigns an allotment in an escrow.
func (n *Node) AddParticipant(ctx context.Context, caller common.Address, escrowID string, wallet common.Address, amount *big.Int) error {
	return n.vestingOp(ctx, "vesting_add", caller, access.RoleOperator, escrowID, func(v *vesting.Engine, now uint64) error {
		return v.AddParticipant(wallet, amount, now)
	})
}

// RemoveParticipant drops wallet from an escrow roster.
func (n *Node) RemoveParticipant(ctx context.Context, caller common.Address, escrowID string, wallet common.Address) error {
	return n.vestingOp(ctx, "vesting_remove", caller, access.RoleOperator, escrowID, func(v *vesting.Engine, now uint64) error {
		return v.RemoveParticipant(wallet, now)
	})
}

// Deliver releases every vested amount of an escrow. Anyone may call it.
func (n *Node) Deliver(ctx context.Context, caller common.Address, escrowID string) ([]vesting.Delivery, error) {
	var out []vesting.Delivery
	err := n.vestingOp(ctx, "vesting_deliver", caller, "", escrowID, func(v *vesting.Engine, now uint64) error {
		var err error
		out, err = v.Deliver(now)
		return err
	})
	if err == nil {
		for _, d := range out {
			n.metrics.AddDelivered(escrowID, d.Amount)
		}
	}
	return out, err
}

// GrantRole adds account to role.
func (n *Node) GrantRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) error {
	return n.execute(ctx, "grant_role", caller, func(e engines, _ uint64) error {
		return e.access.Grant(caller, role, account)
	})
}

// RevokeRole removes account from role.
func (n *Node) RevokeRole(ctx context.Context, caller common.Address, role access.Role, account common.Address) error {
	return n.execute(ctx, "revoke_role", caller, func(e engines, _ uint64) error {
		return e.access.Revoke(caller, role, account)
	})
}

// SetPaused pauses or resumes a module.
func (n *Node) SetPaused(ctx context.Context, caller common.Address, module string, paused bool) error {
	return n.execute(ctx, "set_paused", caller, func(e engines, _ uint64) error {
		if err := access.Require(e.access, caller, access.RoleOwner); err != nil {
			return err
		}
		return e.pauses.SetPaused(caller, module, paused)
	})
}
