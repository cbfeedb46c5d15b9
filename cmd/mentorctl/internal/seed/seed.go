// Package seed loads submissions from a YAML or JSON file and inserts them into a store.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"

	"github.com/mentorconnect/submissions-api/internal/store"
	"github.com/mentorconnect/submissions-api/internal/types"
)

var tracer = otel.Tracer("github.com/mentorconnect/submissions-api/cmd/mentorctl/internal/seed")

//go:embed submissions.schema.json
var rawSchema string

const schemaURL = "submissions.schema.json"

var Schema = compileSchema()

func compileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	if err := c.AddResource(schemaURL, strings.NewReader(rawSchema)); err != nil {
		panic("Internal error contact a contributor [seed-schema-resource]")
	}

	return c.MustCompile(schemaURL)
}

// The file did not match the seed schema. Fields maps instance locations to messages.
type SchemaError struct {
	Fields map[string]string
}

func (e *SchemaError) Error() string {
	locations := make([]string, 0, len(e.Fields))
	for loc := range e.Fields {
		locations = append(locations, loc)
	}
	sort.Strings(locations)

	parts := make([]string, 0, len(locations))
	for _, loc := range locations {
		parts = append(parts, fmt.Sprintf("%s: %s", loc, e.Fields[loc]))
	}

	return "seed file failed to validate: " + strings.Join(parts, "; ")
}

// yaml.v2 decodes mappings with interface keys which JSON cannot represent
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non string key %v", k)
			}
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			m[key] = n
		}
		return m, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}

// Only the innermost causes name the offending field
func collectLeaves(ve *jsonschema.ValidationError, fields map[string]string) {
	if len(ve.Causes) == 0 {
		fields[ve.InstanceLocation] = ve.Message
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, fields)
	}
}

// Parses a YAML or JSON document holding a list of submissions and checks it against [Schema]
func Parse(ctx context.Context, data []byte) ([]types.SubmissionCreate, error) {
	_, span := tracer.Start(ctx, "Parse")
	defer span.End()

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse seed file")
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	normalized, err := normalize(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to normalize seed file")
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	// round trip through JSON so numbers have the types the schema validator expects
	encoded, err := json.Marshal(normalized)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode seed file")
		return nil, err
	}

	var doc any
	if err = json.Unmarshal(encoded, &doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode seed file")
		return nil, err
	}

	span.AddEvent("validating against schema")
	err = Schema.Validate(doc)
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		fieldMap := make(map[string]string)
		collectLeaves(validationErr, fieldMap)
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "seed file was not schema compliant")
		return nil, &SchemaError{Fields: fieldMap}
	} else if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to validate seed file")
		return nil, err
	}

	var submissions []types.SubmissionCreate
	if err = json.Unmarshal(encoded, &submissions); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode submissions")
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}

	span.SetAttributes(attribute.Int("submissions", len(submissions)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "parsed seed file")
	return submissions, nil
}

// Creates every submission with at most `concurrency` writes in flight. Returned ids are in
// input order. Stops at the first failure; submissions already written are kept.
func Insert(
	ctx context.Context,
	s store.Store,
	submissions []types.SubmissionCreate,
	concurrency int,
	now time.Time,
) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Insert")
	defer span.End()

	span.SetAttributes(
		attribute.Int("submissions", len(submissions)),
		attribute.Int("concurrency", concurrency),
	)

	ids := make([]string, len(submissions))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(concurrency, 1))
	for i := range submissions {
		eg.Go(func() error {
			id, err := s.Create(egctx, submissions[i].NewSubmission(now))
			if err != nil {
				return fmt.Errorf("submission %d: %w", i, err)
			}
			ids[i] = id
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert submissions")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "inserted submissions")
	return ids, nil
}
