package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mentorconnect/submissions-api/internal/store"
)

const (
	// Used when the connection URI does not name a database
	DefaultDatabase = "mentor_mentee"
	Collection      = "submissions"
)

var tracer = otel.Tracer("github.com/mentorconnect/submissions-api/internal/store/mongostore")

// Ensure Store implements store.Store interface.
var _ store.Store = (*Store)(nil)

type document struct {
	CreatedAt       time.Time          `bson:"createdAt"`
	BatchNo         *string            `bson:"batchNo,omitempty"`
	Section         *string            `bson:"section,omitempty"`
	Cytest          *string            `bson:"cytest,omitempty"`
	MentorComments  *string            `bson:"mentorComments,omitempty"`
	Counselling     *string            `bson:"counselling,omitempty"`
	StudentFeedback *string            `bson:"studentFeedback,omitempty"`
	MentorName      string             `bson:"mentorName"`
	StudentName     string             `bson:"studentName"`
	Branch          string             `bson:"branch"`
	Semester        string             `bson:"semester"`
	ID              primitive.ObjectID `bson:"_id,omitempty"`
}

func (d *document) submission() store.Submission {
	return store.Submission{
		ID:              d.ID.Hex(),
		MentorName:      d.MentorName,
		StudentName:     d.StudentName,
		Branch:          d.Branch,
		Semester:        d.Semester,
		BatchNo:         d.BatchNo,
		Section:         d.Section,
		Cytest:          d.Cytest,
		MentorComments:  d.MentorComments,
		Counselling:     d.Counselling,
		StudentFeedback: d.StudentFeedback,
		CreatedAt:       d.CreatedAt,
	}
}

// Submissions stored as documents in a single MongoDB collection
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		client:     db.Client(),
		collection: db.Collection(Collection),
		now:        time.Now,
	}
}

// Connects and pings the server named by `uri`. Does not retry.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*Store, error) {
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()

	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse connection string")
		return nil, fmt.Errorf("failed to parse mongo connection string: %w", err)
	}

	database := cs.Database
	if database == "" {
		database = DefaultDatabase
	}
	span.SetAttributes(attribute.String("db.name", database))

	opts := options.Client().
		ApplyURI(uri).
		SetMonitor(otelmongo.NewMonitor()).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	span.AddEvent("connecting")
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to connect")
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	s := New(client.Database(database))

	span.AddEvent("pinging")
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err = s.Ping(pingCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to ping")
		return nil, errors.Join(
			fmt.Errorf("failed to ping mongo: %w", err),
			client.Disconnect(ctx),
		)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "connected")
	return s, nil
}

func (s *Store) Create(ctx context.Context, n store.NewSubmission) (string, error) {
	ctx, span := tracer.Start(ctx, "Create")
	defer span.End()

	span.AddEvent("validating submission")
	if err := n.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "invalid submission")
		return "", err
	}

	built := n.Build("", s.now())
	doc := document{
		ID:              primitive.NewObjectID(),
		MentorName:      built.MentorName,
		StudentName:     built.StudentName,
		Branch:          built.Branch,
		Semester:        built.Semester,
		BatchNo:         built.BatchNo,
		Section:         built.Section,
		Cytest:          built.Cytest,
		MentorComments:  built.MentorComments,
		Counselling:     built.Counselling,
		StudentFeedback: built.StudentFeedback,
		CreatedAt:       built.CreatedAt,
	}
	span.SetAttributes(attribute.String("submission.id", doc.ID.Hex()))

	span.AddEvent("inserting document")
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert")
		return "", fmt.Errorf("failed to insert submission: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created submission")
	return doc.ID.Hex(), nil
}

func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "DeleteAll")
	defer span.End()

	res, err := s.collection.DeleteMany(ctx, bson.D{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete")
		return 0, fmt.Errorf("failed to delete submissions: %w", err)
	}

	span.SetAttributes(attribute.Int64("deleted", res.DeletedCount))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted all submissions")
	return res.DeletedCount, nil
}

func (s *Store) UpdateFeedback(
	ctx context.Context,
	id string,
	feedback string,
) (*store.Submission, error) {
	ctx, span := tracer.Start(ctx, "UpdateFeedback")
	defer span.End()

	span.SetAttributes(attribute.String("submission.id", id))

	if err := store.ValidateFeedback(feedback); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "invalid feedback")
		return nil, err
	}

	// a malformed id can never match a document
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "id is not an object id")
		return nil, store.ErrNotFound
	}

	span.AddEvent("updating document")
	var doc document
	err = s.collection.FindOneAndUpdate(
		ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "studentFeedback", Value: feedback}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "submission not found")
		return nil, store.ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update")
		return nil, fmt.Errorf("failed to update submission feedback: %w", err)
	}

	updated := doc.submission()

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated feedback")
	return &updated, nil
}

func (s *Store) Find(ctx context.Context, filter store.Filter) ([]store.Submission, error) {
	ctx, span := tracer.Start(ctx, "Find")
	defer span.End()

	query, err := filterQuery(filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build query")
		return nil, err
	}

	span.AddEvent("querying documents")
	cursor, err := s.collection.Find(
		ctx,
		query,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query")
		return nil, fmt.Errorf("failed to find submissions: %w", err)
	}

	docs := []document{}
	if err = cursor.All(ctx, &docs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode")
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}

	submissions := make([]store.Submission, 0, len(docs))
	for _, doc := range docs {
		submissions = append(submissions, doc.submission())
	}

	span.SetAttributes(attribute.Int("results", len(submissions)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "found submissions")
	return submissions, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func filterQuery(filter store.Filter) (bson.D, error) {
	switch f := filter.(type) {
	case nil:
		return bson.D{}, nil
	case store.SearchFilter:
		pattern := primitive.Regex{Pattern: f.Term, Options: "i"}
		return bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "studentName", Value: pattern}},
			bson.D{{Key: "batchNo", Value: pattern}},
		}}}, nil
	case store.ExactFilter:
		query := bson.D{}
		if f.Branch != nil {
			query = append(query, bson.E{Key: "branch", Value: *f.Branch})
		}
		if f.Semester != nil {
			query = append(query, bson.E{Key: "semester", Value: *f.Semester})
		}
		return query, nil
	default:
		return nil, fmt.Errorf("unsupported filter %T", filter)
	}
}
