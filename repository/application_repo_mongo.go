package repository

import (
	"context"
	"errors"
	"fmt"

	"kredit-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoApplicationRepo struct {
	DB *mongo.Database
}

func NewMongoApplicationRepo(db *mongo.Database) *MongoApplicationRepo {
	return &MongoApplicationRepo{DB: db}
}

func (r *MongoApplicationRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.DB.Collection(applicationsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create application indexes: %w", err)
	}
	return nil
}

func (r *MongoApplicationRepo) Create(ctx context.Context, app *models.Application) error {
	if _, err := r.DB.Collection(applicationsCollection).InsertOne(ctx, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (r *MongoApplicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	err := r.DB.Collection(applicationsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	apps := []models.Application{app}
	if err := r.populateOwners(ctx, apps); err != nil {
		return nil, err
	}
	return &apps[0], nil
}

func (r *MongoApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.DB.Collection(applicationsCollection).Find(ctx, toBSON(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer cur.Close(ctx)

	apps := []models.Application{}
	if err := cur.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}
	if err := r.populateOwners(ctx, apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *MongoApplicationRepo) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) error {
	set := bson.M{
		"status":    update.Status,
		"notes":     update.Notes,
		"updatedAt": update.UpdatedAt,
	}
	if update.ReviewedBy != nil {
		set["reviewedBy"] = *update.ReviewedBy
	}
	if update.ApprovedBy != nil {
		set["approvedBy"] = *update.ApprovedBy
	}

	result, err := r.DB.Collection(applicationsCollection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoApplicationRepo) CountByStatus(ctx context.Context, filter models.ApplicationFilter) (models.Stats, error) {
	var stats models.Stats
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: toBSON(filter)}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.DB.Collection(applicationsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return stats, fmt.Errorf("count applications: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			Status models.ApplicationStatus `bson:"_id"`
			Count  int64                    `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return stats, fmt.Errorf("decode count: %w", err)
		}
		stats.Add(row.Status, row.Count)
	}
	return stats, cur.Err()
}

// populateOwners loads the owning users in one query and attaches them.
func (r *MongoApplicationRepo) populateOwners(ctx context.Context, apps []models.Application) error {
	if len(apps) == 0 {
		return nil
	}
	ids := make([]string, 0, len(apps))
	seen := map[string]bool{}
	for _, app := range apps {
		if !seen[app.OwnerID] {
			seen[app.OwnerID] = true
			ids = append(ids, app.OwnerID)
		}
	}

	cur, err := r.DB.Collection(usersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("load application owners: %w", err)
	}
	var owners []models.User
	if err := cur.All(ctx, &owners); err != nil {
		return fmt.Errorf("decode application owners: %w", err)
	}

	byID := make(map[string]*models.User, len(owners))
	for i := range owners {
		byID[owners[i].ID] = &owners[i]
	}
	for i := range apps {
		apps[i].Owner = byID[apps[i].OwnerID]
	}
	return nil
}

func toBSON(filter models.ApplicationFilter) bson.M {
	m := bson.M{}
	if filter.OwnerID != "" {
		m["userId"] = filter.OwnerID
	}
	if filter.Status != "" {
		m["status"] = filter.Status
	}
	return m
}
