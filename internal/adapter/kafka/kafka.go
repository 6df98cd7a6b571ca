// Package kafka moves product views through Kafka: a franz-go producer
// and group consumer, a goka processor counting views per slug and
// a goka view reading the counts.
package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt dials seedBrokers and pings them. A nil tlsCfg
// means plaintext.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsCfg *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		cl, err := kgo.NewClient(clientOpts(tlsCfg,
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.AllowAutoTopicCreation(),
		)...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ProducerWithClientOpt sets a ready client, mostly for tests.
func ProducerWithClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("producer client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	CommitUncommittedOffsets(context.Context) error
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

func clientOpts(tlsCfg *tls.Config, opts ...kgo.Opt) []kgo.Opt {
	if tlsCfg != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	return opts
}

// UseGokaTLS makes every goka processor and view created afterwards
// connect over TLS.
func UseGokaTLS(tlsCfg *tls.Config) {
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsCfg
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func viewToSchemaV1(v domain.ProductView) (s schema.ProductViewV1) {
	s.VisitorID = v.VisitorID
	s.ProductID = v.ProductID
	s.Slug = v.Slug
	s.Name = v.Name
	s.PriceAmount = v.PriceAmount
	s.CurrencyCode = v.CurrencyCode
	s.ViewedAt = v.ViewedAt.UTC()
	return
}

func schemaV1ToView(s schema.ProductViewV1) (v domain.ProductView) {
	v.VisitorID = s.VisitorID
	v.ProductID = s.ProductID
	v.Slug = s.Slug
	v.Name = s.Name
	v.PriceAmount = s.PriceAmount
	v.CurrencyCode = s.CurrencyCode
	v.ViewedAt = s.ViewedAt
	return
}
