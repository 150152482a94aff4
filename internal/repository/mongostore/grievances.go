package mongostore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"grievancedesk/internal/model"
	"grievancedesk/internal/repository"
)

type grievanceRepository struct {
	coll *mongo.Collection
}

// NewGrievanceRepository builds a MongoDB-backed grievance repository.
func NewGrievanceRepository(db *mongo.Database) repository.GrievanceRepository {
	return &grievanceRepository{coll: db.Collection(grievancesCollection)}
}

func (r *grievanceRepository) Create(ctx context.Context, g *model.Grievance) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Photos == nil {
		g.Photos = model.PhotoList{}
	}
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, g)
	return translate(err)
}

func (r *grievanceRepository) Update(ctx context.Context, g *model.Grievance) error {
	g.UpdatedAt = time.Now().UTC()
	photos := []string(g.Photos)
	if photos == nil {
		photos = []string{}
	}
	set := bson.D{
		{Key: "category", Value: g.Category},
		{Key: "description", Value: g.Description},
		{Key: "address", Value: g.Address},
		{Key: "status", Value: g.Status},
		{Key: "photos", Value: photos},
		{Key: "department", Value: g.DepartmentID},
		{Key: "feedback", Value: g.Feedback},
		{Key: "updatedAt", Value: g.UpdatedAt},
	}
	res, err := r.coll.UpdateOne(ctx, byID(g.ID), bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *grievanceRepository) UpdateStatus(ctx context.Context, id string, status model.GrievanceStatus) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: status},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	_, err := r.coll.UpdateOne(ctx, byID(id), update)
	return err
}

func (r *grievanceRepository) FindByID(ctx context.Context, id string) (*model.Grievance, error) {
	var g model.Grievance
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&g); err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r *grievanceRepository) List(ctx context.Context, filter repository.GrievanceFilter) ([]model.Grievance, error) {
	q := bson.D{}
	if filter.SubmittedBy != "" {
		q = append(q, bson.E{Key: "submittedBy", Value: filter.SubmittedBy})
	}
	if filter.DepartmentID != "" {
		q = append(q, bson.E{Key: "department", Value: filter.DepartmentID})
	}
	cur, err := r.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []model.Grievance{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *grievanceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *grievanceRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}

func (r *grievanceRepository) CountByStatus(ctx context.Context) ([]repository.GroupCount, error) {
	return groupCount(ctx, r.coll, "status", nil)
}

func (r *grievanceRepository) CountByCategory(ctx context.Context) ([]repository.GroupCount, error) {
	return groupCount(ctx, r.coll, "category", nil)
}

func (r *grievanceRepository) CountByDepartment(ctx context.Context) ([]repository.GroupCount, error) {
	match := bson.D{{Key: "department", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}}}
	return groupCount(ctx, r.coll, "department", match)
}

func (r *grievanceRepository) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.D{{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}}}, opts)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		CreatedAt time.Time `bson:"createdAt"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.CreatedAt)
	}
	return out, nil
}

func (r *grievanceRepository) Categories(ctx context.Context) ([]string, error) {
	raw, err := r.coll.Distinct(ctx, "category", bson.D{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}
