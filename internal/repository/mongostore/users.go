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

type userRepository struct {
	users      *mongo.Collection
	grievances *mongo.Collection
}

// NewUserRepository builds a MongoDB-backed user repository.
func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &userRepository{
		users:      db.Collection(usersCollection),
		grievances: db.Collection(grievancesCollection),
	}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = model.RoleCitizen
	}
	_, err := r.users.InsertOne(ctx, user)
	return translate(err)
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	set := bson.D{
		{Key: "fullname", Value: user.Fullname},
		{Key: "email", Value: user.Email},
		{Key: "password", Value: user.PasswordHash},
		{Key: "role", Value: user.Role},
		{Key: "department", Value: user.DepartmentID},
		{Key: "updatedAt", Value: user.UpdatedAt},
	}
	res, err := r.users.UpdateOne(ctx, byID(user.ID), bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.users.FindOne(ctx, byID(id)).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	users := []model.User{}
	if len(ids) == 0 {
		return users, nil
	}
	cur, err := r.users.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.users.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.users.Find(ctx, bson.D{{Key: "role", Value: role}}, opts)
	if err != nil {
		return nil, err
	}
	users := []model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	return r.users.CountDocuments(ctx, bson.D{{Key: "role", Value: role}})
}

// DeleteCascade runs without a session; standalone servers have no transactions.
func (r *userRepository) DeleteCascade(ctx context.Context, id string) error {
	n, err := r.users.CountDocuments(ctx, byID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	if _, err := r.grievances.DeleteMany(ctx, bson.D{{Key: "submittedBy", Value: id}}); err != nil {
		return err
	}
	_, err = r.users.DeleteOne(ctx, byID(id))
	return err
}
