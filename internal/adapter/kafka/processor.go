package kafka

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.ViewCounterProcessor = (*ViewCounterProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "runProc"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A productViewCodec used for serde [schema.ProductViewV1]
type productViewCodec struct {
	serde Serde
}

func newProductViewCodec(s Serde) productViewCodec {
	return productViewCodec{s}
}

func (c productViewCodec) Encode(v any) ([]byte, error) {
	const op = "productViewCodec.Encode"
	if _, ok := v.(schema.ProductViewV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c productViewCodec) Decode(data []byte) (any, error) {
	const op = "productViewCodec.Decode"
	var s schema.ProductViewV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A viewCount is the number of views of one product slug.
type viewCount int64

// A viewCountCodec used for serde [viewCount]
type viewCountCodec struct{}

func (viewCountCodec) Encode(v any) ([]byte, error) {
	const op = "viewCountCodec.Encode"
	n, ok := v.(viewCount)
	if !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return strconv.AppendInt(nil, int64(n), 10), nil
}

func (viewCountCodec) Decode(data []byte) (any, error) {
	const op = "viewCountCodec.Decode"
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return nil, opErr(err, op)
	}
	return viewCount(n), nil
}

// A ViewCounterProcessor counts product views from the input stream
// into a group table keyed by slug.
type ViewCounterProcessor struct {
	opPrefix string
	proc     processor
}

func NewViewCounterProc(
	seedBrokers []string,
	inputStream string,
	groupTable string,
	viewSerde Serde,
) (*ViewCounterProcessor, error) {
	const op = "NewViewCounterProc"

	p := ViewCounterProcessor{opPrefix: "ViewCounterProcessor"}

	gg := goka.DefineGroup(goka.Group(groupTable),
		goka.Input(
			goka.Stream(inputStream),
			newProductViewCodec(viewSerde),
			p.processFn,
		),
		goka.Persist(viewCountCodec{}),
	)

	gp, err := goka.NewProcessor(seedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}

	return &p, nil
}

func (p *ViewCounterProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *ViewCounterProcessor) Close() {
	p.proc.close()
}

func (p *ViewCounterProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"

	view, _ := msg.(schema.ProductViewV1)
	n := countView(ctx.Value())
	ctx.SetValue(n)

	slog.With("op", makeOp(p.opPrefix, op)).Debug(
		"view counted", "slug", ctx.Key(), "visitorID", view.VisitorID, "views", n,
	)
}

// countView increments the stored count. A missing value counts as zero.
func countView(stored any) viewCount {
	n, _ := stored.(viewCount)
	return n + 1
}
