package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quickavail/backend/internal/domain"
)

// ScheduleCollection is the MongoDB collection holding schedules.
const ScheduleCollection = "availability_schedules"

const (
	mongoOpTimeout    = 5 * time.Second
	mongoIndexTimeout = 10 * time.Second

	// mongoTTLGrace keeps expired documents around long enough for viewers to
	// get "expired" rather than "not found". The admin cleanup removes them
	// sooner when asked.
	mongoTTLGrace = 7 * 24 * time.Hour
)

// scheduleDocument is the BSON shape of a stored schedule.
type scheduleDocument struct {
	ShareID         string               `bson:"shareId"`
	PersonName      string               `bson:"personName"`
	PersonEmail     string               `bson:"personEmail"`
	SelectedProject string               `bson:"selectedProject"`
	Projects        []domain.Project     `bson:"projects"`
	SelectedDates   domain.SelectedDates `bson:"selectedDates"`
	CreatedAt       time.Time            `bson:"createdAt"`
	ExpiresAt       time.Time            `bson:"expiresAt"`
	UserTimezone    string               `bson:"userTimezone"`
	ViewCount       int                  `bson:"viewCount"`
	LastViewedAt    time.Time            `bson:"lastViewedAt"`
	Analytics       domain.Analytics     `bson:"analytics"`
}

func toDocument(s domain.Schedule) scheduleDocument {
	projects := s.Projects
	if projects == nil {
		projects = []domain.Project{}
	}
	a := s.Analytics
	if a.ProjectsUsed == nil {
		a.ProjectsUsed = []string{}
	}
	return scheduleDocument{
		ShareID:         s.ShareID,
		PersonName:      s.PersonName,
		PersonEmail:     s.PersonEmail,
		SelectedProject: s.SelectedProject,
		Projects:        projects,
		SelectedDates:   s.SelectedDates,
		CreatedAt:       utcMillis(s.CreatedAt),
		ExpiresAt:       utcMillis(s.ExpiresAt),
		UserTimezone:    s.UserTimezone,
		ViewCount:       s.ViewCount,
		LastViewedAt:    utcMillis(s.LastViewedAt),
		Analytics:       a,
	}
}

func (d scheduleDocument) toDomain() domain.Schedule {
	return domain.Schedule{
		ShareID:         d.ShareID,
		PersonName:      d.PersonName,
		PersonEmail:     d.PersonEmail,
		SelectedProject: d.SelectedProject,
		Projects:        d.Projects,
		SelectedDates:   d.SelectedDates,
		CreatedAt:       d.CreatedAt.UTC(),
		ExpiresAt:       d.ExpiresAt.UTC(),
		UserTimezone:    d.UserTimezone,
		ViewCount:       d.ViewCount,
		LastViewedAt:    d.LastViewedAt.UTC(),
		Analytics:       d.Analytics,
	}
}

// MongoScheduleRepo is the MongoDB implementation of ScheduleRepo.
type MongoScheduleRepo struct {
	coll *mongo.Collection
}

var _ ScheduleRepo = (*MongoScheduleRepo)(nil)

// NewMongoScheduleRepo constructs a repo on the schedules collection of db.
// Call EnsureIndexes once at startup.
func NewMongoScheduleRepo(db *mongo.Database) *MongoScheduleRepo {
	return &MongoScheduleRepo{coll: db.Collection(ScheduleCollection)}
}

// EnsureIndexes creates the unique share id index, the expiration TTL index
// and the per-email history index.
func (r *MongoScheduleRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mongoIndexTimeout)
	defer cancel()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "shareId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_share_id"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(mongoTTLGrace.Seconds())).SetName("expires_at_ttl"),
		},
		{
			Keys:    bson.D{{Key: "personEmail", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("email_created_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("repo.MongoScheduleRepo.EnsureIndexes: %w", err)
	}
	return nil
}

func (r *MongoScheduleRepo) Create(ctx context.Context, s domain.Schedule) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, toDocument(s)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("repo.MongoScheduleRepo.Create: %w", domain.ErrConflict)
		}
		return fmt.Errorf("repo.MongoScheduleRepo.Create: %w", err)
	}
	return nil
}

func (r *MongoScheduleRepo) GetByShareID(ctx context.Context, shareID string) (domain.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var doc scheduleDocument
	if err := r.coll.FindOne(ctx, bson.M{"shareId": shareID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Schedule{}, fmt.Errorf("repo.MongoScheduleRepo.GetByShareID: %w", domain.ErrNotFound)
		}
		return domain.Schedule{}, fmt.Errorf("repo.MongoScheduleRepo.GetByShareID: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoScheduleRepo) RecordView(ctx context.Context, shareID string, at time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"viewCount": 1},
		"$set": bson.M{"lastViewedAt": utcMillis(at)},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"viewCount": 1})

	var out struct {
		ViewCount int `bson:"viewCount"`
	}
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"shareId": shareID}, update, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, fmt.Errorf("repo.MongoScheduleRepo.RecordView: %w", domain.ErrNotFound)
		}
		return 0, fmt.Errorf("repo.MongoScheduleRepo.RecordView: %w", err)
	}
	return out.ViewCount, nil
}

func (r *MongoScheduleRepo) Count(ctx context.Context, f domain.ScheduleFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, mongoFilter(f))
	if err != nil {
		return 0, fmt.Errorf("repo.MongoScheduleRepo.Count: %w", err)
	}
	return n, nil
}

func (r *MongoScheduleRepo) Sample(ctx context.Context, f domain.ScheduleFilter, limit int) ([]domain.ScheduleSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "shareId", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"shareId": 1, "personName": 1, "createdAt": 1, "expiresAt": 1, "viewCount": 1})

	cursor, err := r.coll.Find(ctx, mongoFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("repo.MongoScheduleRepo.Sample: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []scheduleDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("repo.MongoScheduleRepo.Sample: decode: %w", err)
	}

	out := make([]domain.ScheduleSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain().Summary())
	}
	return out, nil
}

func (r *MongoScheduleRepo) DeleteMatching(ctx context.Context, f domain.ScheduleFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, mongoFilter(f))
	if err != nil {
		return 0, fmt.Errorf("repo.MongoScheduleRepo.DeleteMatching: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoScheduleRepo) ViewStats(ctx context.Context) (domain.ViewStats, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"totalViews": bson.M{"$sum": "$viewCount"},
			"avgViews":   bson.M{"$avg": "$viewCount"},
			"maxViews":   bson.M{"$max": "$viewCount"},
			"withViews": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$gt": bson.A{"$viewCount", 1}}, 1, 0},
			}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.ViewStats{}, fmt.Errorf("repo.MongoScheduleRepo.ViewStats: %w", err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		TotalViews int64   `bson:"totalViews"`
		AvgViews   float64 `bson:"avgViews"`
		MaxViews   int64   `bson:"maxViews"`
		WithViews  int64   `bson:"withViews"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return domain.ViewStats{}, fmt.Errorf("repo.MongoScheduleRepo.ViewStats: decode: %w", err)
	}
	if len(result) == 0 {
		return domain.ViewStats{}, nil
	}
	return domain.ViewStats{
		TotalViews:         result[0].TotalViews,
		AverageViews:       result[0].AvgViews,
		MaxViews:           result[0].MaxViews,
		SchedulesWithViews: result[0].WithViews,
	}, nil
}

func (r *MongoScheduleRepo) ActiveExpirations(ctx context.Context, now time.Time) ([]time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "expiresAt", Value: 1}}).
		SetProjection(bson.M{"expiresAt": 1})

	cursor, err := r.coll.Find(ctx, bson.M{"expiresAt": bson.M{"$gt": now.UTC()}}, opts)
	if err != nil {
		return nil, fmt.Errorf("repo.MongoScheduleRepo.ActiveExpirations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ExpiresAt time.Time `bson:"expiresAt"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("repo.MongoScheduleRepo.ActiveExpirations: decode: %w", err)
	}

	out := make([]time.Time, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ExpiresAt.UTC())
	}
	return out, nil
}

func (r *MongoScheduleRepo) ProjectUsage(ctx context.Context, limit int) ([]domain.ProjectUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$analytics.projectsUsed"}},
		{{Key: "$group", Value: bson.M{
			"_id":        "$analytics.projectsUsed",
			"count":      bson.M{"$sum": 1},
			"totalHours": bson.M{"$sum": "$analytics.totalHours"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("repo.MongoScheduleRepo.ProjectUsage: %w", err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		ProjectID  string  `bson:"_id"`
		Count      int64   `bson:"count"`
		TotalHours float64 `bson:"totalHours"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("repo.MongoScheduleRepo.ProjectUsage: decode: %w", err)
	}

	out := make([]domain.ProjectUsage, 0, len(result))
	for _, u := range result {
		out = append(out, domain.ProjectUsage{
			ProjectID:  u.ProjectID,
			Count:      u.Count,
			TotalHours: domain.RoundTenth(u.TotalHours),
		})
	}
	return out, nil
}

// mongoFilter translates f into a query document.
func mongoFilter(f domain.ScheduleFilter) bson.M {
	out := bson.M{}
	for _, p := range predicates(f) {
		path := p.field.mongoPath()
		cond, ok := out[path].(bson.M)
		if !ok {
			cond = bson.M{}
			out[path] = cond
		}
		cond[p.op.mongo()] = p.value
	}
	return out
}

func (f field) mongoPath() string {
	switch f {
	case fieldExpiresAt:
		return "expiresAt"
	case fieldCreatedAt:
		return "createdAt"
	default:
		return "viewCount"
	}
}

func (o op) mongo() string {
	switch o {
	case opLT:
		return "$lt"
	case opGT:
		return "$gt"
	case opGTE:
		return "$gte"
	default:
		return "$lte"
	}
}
