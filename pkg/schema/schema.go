// Package schema holds the Avro event schemas and the schema registry serde.
package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/sr"
)

// A SchemaIdentifier registers a schema under a subject
// and reports its registry ID.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject, avroSchemaText string) (int, error)
}

type RegistryClient interface {
	CreateSchema(ctx context.Context, subject string, s sr.Schema) (sr.SubjectSchema, error)
}

// A RegistryIdentifier resolves schema IDs through the schema registry.
//
// Registering an already known schema returns its existing ID.
type RegistryIdentifier struct {
	cl RegistryClient
}

func NewRegistryIdentifier(cl RegistryClient) RegistryIdentifier {
	if cl == nil {
		panic(errors.New("NewRegistryIdentifier: nil client")) // develop mistake
	}
	return RegistryIdentifier{cl}
}

func (ri RegistryIdentifier) DetermineID(
	ctx context.Context, subject, avroSchemaText string,
) (int, error) {
	const op = "RegistryIdentifier.DetermineID"

	ss, err := ri.cl.CreateSchema(ctx, subject, sr.Schema{
		Schema: avroSchemaText,
		Type:   sr.TypeAvro,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: subject %q: %w", op, subject, err)
	}
	return ss.ID, nil
}

// TopicValueSubject is the registry subject of a topic value
// under the default topic name strategy.
func TopicValueSubject(topic string) string {
	return topic + "-value"
}
