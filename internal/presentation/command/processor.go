package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	dominv "github.com/tidemill/storefront/internal/domain/inventory"
	domorder "github.com/tidemill/storefront/internal/domain/order"
	"github.com/tidemill/storefront/internal/observability"
	"github.com/tidemill/storefront/internal/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const componentProcessor = "command_processor"

// Replies of the text protocol. Every request gets exactly one of these (or
// a listing); malformed input is answered, never dropped.
const (
	replyBadRequest       = "ERR BadRequest"
	replyInvalidArgument  = "ERR InvalidArgument"
	replyInsufficient     = "ERR InsufficientStock"
	replyOrderNotFound    = "ERR OrderNotFound"
	replyAlreadyCancelled = "ERR OrderAlreadyCancelled"
	replyInternal         = "ERR Internal"
)

// Coordinator is the purchase/cancel entry point the processor dispatches to.
type Coordinator interface {
	Purchase(ctx context.Context, username, product string, quantity int) (*domorder.Order, error)
	Cancel(ctx context.Context, orderID int) (*domorder.Order, error)
}

// Processor turns one datagram payload into one reply line. Read-only
// commands go straight to the stores; purchase and cancel go through the
// coordinator.
type Processor struct {
	coord   Coordinator
	inv     dominv.Store
	ledger  domorder.Ledger
	log     *zap.Logger
	metrics *observability.Metrics
}

func NewProcessor(coord Coordinator, inv dominv.Store, ledger domorder.Ledger, logger *zap.Logger, metrics *observability.Metrics) *Processor {
	if logger == nil {
		logger = zap.L()
	}
	return &Processor{
		coord:   coord,
		inv:     inv,
		ledger:  ledger,
		log:     logger.With(zap.String("component", componentProcessor)),
		metrics: metrics,
	}
}

// Execute parses and dispatches a single command payload and returns the
// reply text. It never panics outward and never returns an empty reply for a
// non-empty command.
func (p *Processor) Execute(ctx context.Context, payload []byte) string {
	requestID := uuid.NewString()
	logger := logging.WithRequestID(p.log, requestID)
	ctx = logging.ContextWithLogger(ctx, logger)

	tokens := strings.Fields(string(payload))
	cmd := "unknown"
	if len(tokens) > 0 {
		cmd = tokens[0]
	}

	tracer := otel.Tracer("storefront.command")
	ctx, span := tracer.Start(ctx, "command "+cmd,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("command.name", cmd)),
	)
	defer span.End()

	start := time.Now()
	reply, outcome := p.dispatch(ctx, cmd, tokens)
	span.SetAttributes(attribute.String("command.outcome", outcome))
	if p.metrics != nil {
		p.metrics.ObserveCommand(cmd, outcome, time.Since(start))
	}

	level := zapcore.InfoLevel
	if outcome == "internal_error" {
		level = zapcore.ErrorLevel
	}
	logger.Log(level, "command_processed",
		zap.String("command", cmd),
		zap.String("outcome", outcome),
		zap.Duration("latency", time.Since(start)),
	)
	return reply
}

func (p *Processor) dispatch(ctx context.Context, cmd string, tokens []string) (reply, outcome string) {
	switch cmd {
	case "purchase":
		return p.handlePurchase(ctx, tokens)
	case "cancel":
		return p.handleCancel(ctx, tokens)
	case "search":
		return p.handleSearch(ctx, tokens)
	case "list":
		if len(tokens) != 1 {
			return replyBadRequest, "bad_request"
		}
		return p.inv.RenderListing(ctx), "ok"
	default:
		return replyBadRequest, "bad_request"
	}
}

func (p *Processor) handlePurchase(ctx context.Context, tokens []string) (string, string) {
	if len(tokens) != 4 {
		return replyBadRequest, "bad_request"
	}
	quantity, err := strconv.Atoi(tokens[3])
	if err != nil {
		return replyBadRequest, "bad_request"
	}

	order, err := p.coord.Purchase(ctx, tokens[1], tokens[2], quantity)
	switch {
	case err == nil:
		return fmt.Sprintf("OK %d", order.ID), "ok"
	case errors.Is(err, dominv.ErrInsufficientStock):
		return replyInsufficient, "insufficient_stock"
	case errors.Is(err, dominv.ErrInvalidQuantity), errors.Is(err, domorder.ErrInvalidQuantity):
		return replyInvalidArgument, "invalid_argument"
	default:
		return replyInternal, "internal_error"
	}
}

func (p *Processor) handleCancel(ctx context.Context, tokens []string) (string, string) {
	if len(tokens) != 2 {
		return replyBadRequest, "bad_request"
	}
	orderID, err := strconv.Atoi(tokens[1])
	if err != nil {
		return replyBadRequest, "bad_request"
	}

	order, err := p.coord.Cancel(ctx, orderID)
	switch {
	case err == nil:
		return fmt.Sprintf("OK %d restored", order.Quantity), "ok"
	case errors.Is(err, domorder.ErrNotFound):
		return replyOrderNotFound, "order_not_found"
	case errors.Is(err, domorder.ErrAlreadyCancelled):
		return replyAlreadyCancelled, "order_already_cancelled"
	default:
		return replyInternal, "internal_error"
	}
}

func (p *Processor) handleSearch(ctx context.Context, tokens []string) (string, string) {
	if len(tokens) != 2 {
		return replyBadRequest, "bad_request"
	}

	var sb strings.Builder
	for _, o := range p.ledger.ForUser(ctx, tokens[1]) {
		fmt.Fprintf(&sb, "%d %s %d %s\n", o.ID, o.Product, o.Quantity, o.Status)
	}
	return sb.String(), "ok"
}
