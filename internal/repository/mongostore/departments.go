package mongostore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"grievancedesk/internal/model"
	"grievancedesk/internal/repository"
)

type departmentRepository struct {
	coll *mongo.Collection
}

// NewDepartmentRepository builds a MongoDB-backed department repository.
func NewDepartmentRepository(db *mongo.Database) repository.DepartmentRepository {
	return &departmentRepository{coll: db.Collection(departmentsCollection)}
}

func (r *departmentRepository) Create(ctx context.Context, dept *model.Department) error {
	if dept.ID == "" {
		dept.ID = uuid.NewString()
	}
	dept.CreatedAt = time.Now().UTC()
	_, err := r.coll.InsertOne(ctx, dept)
	return translate(err)
}

func (r *departmentRepository) FindByID(ctx context.Context, id string) (*model.Department, error) {
	var dept model.Department
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&dept); err != nil {
		return nil, translate(err)
	}
	return &dept, nil
}

func (r *departmentRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Department, error) {
	depts := []model.Department{}
	if len(ids) == 0 {
		return depts, nil
	}
	cur, err := r.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &depts); err != nil {
		return nil, err
	}
	return depts, nil
}

func (r *departmentRepository) FindByName(ctx context.Context, name string) (*model.Department, error) {
	var dept model.Department
	if err := r.coll.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&dept); err != nil {
		return nil, translate(err)
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]model.Department, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	depts := []model.Department{}
	if err := cur.All(ctx, &depts); err != nil {
		return nil, err
	}
	return depts, nil
}

func (r *departmentRepository) Rename(ctx context.Context, id, name string) error {
	res, err := r.coll.UpdateOne(ctx, byID(id), bson.D{{Key: "$set", Value: bson.D{{Key: "name", Value: name}}}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *departmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
