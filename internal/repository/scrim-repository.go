package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ZayanAhmed07/SpikeLeagueScrim/database"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

// ScrimRepository is the record-store contract the coordinators run
// against. Every status transition is a conditional write on the current
// status; a failed condition comes back as a nil scrim, never as an error,
// so callers can tell "lost the race" apart from "store is down".
type ScrimRepository interface {
	Create(ctx context.Context, scrim *models.Scrim) error
	GetByID(ctx context.Context, scrimID string) (*models.Scrim, error)
	BeginBooking(ctx context.Context, scrimID, challengerID string) (*models.Scrim, error)
	ReopenFromPending(ctx context.Context, scrimID string) (*models.Scrim, error)
	TransitionStatus(ctx context.Context, scrimID string, from, to models.ScrimStatus) (*models.Scrim, error)
	MarkPlayedIfAcked(ctx context.Context, scrimID string) (*models.Scrim, error)
	GetActiveForUser(ctx context.Context, userID string) (*models.Scrim, error)
	ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]models.Scrim, error)
	ListOpenForUser(ctx context.Context, userID, excludeScrimID string) ([]models.Scrim, error)
}

type scrimRepo struct {
	db *database.DynamoDBClient
}

func NewScrimRepository(db *database.DynamoDBClient) ScrimRepository {
	return &scrimRepo{db: db}
}

func (r *scrimRepo) Create(ctx context.Context, scrim *models.Scrim) error {
	now := time.Now().UTC()
	createdSK := models.CreatedGSI1SK(now.Format(time.RFC3339))

	scrim.Status = models.StatusOpen
	scrim.AckCount = 0
	scrim.CreatedAt = now
	scrim.UpdatedAt = now
	scrim.PK = models.ScrimPK(scrim.ScrimID)
	scrim.SK = models.MetaSK()
	scrim.GSI1PK = models.StatusGSI1PK(models.StatusOpen)
	scrim.GSI1SK = createdSK
	scrim.GSI2PK = models.RequesterGSI2PK(scrim.RequesterID)
	scrim.GSI2SK = createdSK

	item, err := attributevalue.MarshalMap(scrim)
	if err != nil {
		return fmt.Errorf("failed to marshal scrim: %w", err)
	}

	_, err = r.db.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.db.Table()),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})

	if err != nil {
		return fmt.Errorf("failed to create scrim: %w", err)
	}

	return nil
}

func (r *scrimRepo) GetByID(ctx context.Context, scrimID string) (*models.Scrim, error) {
	result, err := r.db.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.db.Table()),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.ScrimPK(scrimID)},
			"SK": &types.AttributeValueMemberS{Value: models.MetaSK()},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get scrim: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var scrim models.Scrim
	if err := attributevalue.UnmarshalMap(result.Item, &scrim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scrim: %w", err)
	}

	return &scrim, nil
}

// BeginBooking moves an open scrim to pending and records the challenger
// as counterpart in the same conditional write. Two challengers racing on
// the same scrim serialize here: the second one gets a nil scrim back.
func (r *scrimRepo) BeginBooking(ctx context.Context, scrimID, challengerID string) (*models.Scrim, error) {
	result, err := r.db.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.db.Table()),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.ScrimPK(scrimID)},
			"SK": &types.AttributeValueMemberS{Value: models.MetaSK()},
		},
		UpdateExpression: aws.String("SET scrim_status = :to, counterpart_id = :challenger, GSI1PK = :gsi1pk, updated_at = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from":       &types.AttributeValueMemberS{Value: string(models.StatusOpen)},
			":to":         &types.AttributeValueMemberS{Value: string(models.StatusPending)},
			":challenger": &types.AttributeValueMemberS{Value: challengerID},
			":gsi1pk":     &types.AttributeValueMemberS{Value: models.StatusGSI1PK(models.StatusPending)},
			":now":        &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_exists(PK) AND scrim_status = :from AND requester_id <> :challenger"),
		ReturnValues:        types.ReturnValueAllNew,
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to book scrim: %w", err)
	}

	var scrim models.Scrim
	if err := attributevalue.UnmarshalMap(result.Attributes, &scrim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scrim: %w", err)
	}

	return &scrim, nil
}

// ReopenFromPending undoes a booking attempt after a failed ready check.
// The counterpart attribute is removed so the record looks exactly like a
// fresh open scrim again.
func (r *scrimRepo) ReopenFromPending(ctx context.Context, scrimID string) (*models.Scrim, error) {
	result, err := r.db.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.db.Table()),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.ScrimPK(scrimID)},
			"SK": &types.AttributeValueMemberS{Value: models.MetaSK()},
		},
		UpdateExpression: aws.String("SET scrim_status = :to, GSI1PK = :gsi1pk, updated_at = :now REMOVE counterpart_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from":   &types.AttributeValueMemberS{Value: string(models.StatusPending)},
			":to":     &types.AttributeValueMemberS{Value: string(models.StatusOpen)},
			":gsi1pk": &types.AttributeValueMemberS{Value: models.StatusGSI1PK(models.StatusOpen)},
			":now":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_exists(PK) AND scrim_status = :from"),
		ReturnValues:        types.ReturnValueAllNew,
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to reopen scrim: %w", err)
	}

	var scrim models.Scrim
	if err := attributevalue.UnmarshalMap(result.Attributes, &scrim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scrim: %w", err)
	}

	return &scrim, nil
}

func (r *scrimRepo) TransitionStatus(ctx context.Context, scrimID string, from, to models.ScrimStatus) (*models.Scrim, error) {
	result, err := r.db.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.db.Table()),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.ScrimPK(scrimID)},
			"SK": &types.AttributeValueMemberS{Value: models.MetaSK()},
		},
		UpdateExpression: aws.String("SET scrim_status = :to, GSI1PK = :gsi1pk, updated_at = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from":   &types.AttributeValueMemberS{Value: string(from)},
			":to":     &types.AttributeValueMemberS{Value: string(to)},
			":gsi1pk": &types.AttributeValueMemberS{Value: models.StatusGSI1PK(to)},
			":now":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_exists(PK) AND scrim_status = :from"),
		ReturnValues:        types.ReturnValueAllNew,
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to transition scrim: %w", err)
	}

	var scrim models.Scrim
	if err := attributevalue.UnmarshalMap(result.Attributes, &scrim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scrim: %w", err)
	}

	return &scrim, nil
}

// MarkPlayedIfAcked finalizes a booked scrim once both completion acks are
// on record. The ack_count condition makes the double-confirm race safe:
// when both parties confirm at the same instant, both ack writes land but
// only one of the two follow-up calls passes the status condition.
func (r *scrimRepo) MarkPlayedIfAcked(ctx context.Context, scrimID string) (*models.Scrim, error) {
	result, err := r.db.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.db.Table()),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.ScrimPK(scrimID)},
			"SK": &types.AttributeValueMemberS{Value: models.MetaSK()},
		},
		UpdateExpression: aws.String("SET scrim_status = :to, GSI1PK = :gsi1pk, updated_at = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from":   &types.AttributeValueMemberS{Value: string(models.StatusBooked)},
			":to":     &types.AttributeValueMemberS{Value: string(models.StatusPlayed)},
			":gsi1pk": &types.AttributeValueMemberS{Value: models.StatusGSI1PK(models.StatusPlayed)},
			":now":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
			":both":   &types.AttributeValueMemberN{Value: "2"},
		},
		ConditionExpression: aws.String("attribute_exists(PK) AND scrim_status = :from AND ack_count >= :both"),
		ReturnValues:        types.ReturnValueAllNew,
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to mark scrim as played: %w", err)
	}

	var scrim models.Scrim
	if err := attributevalue.UnmarshalMap(result.Attributes, &scrim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scrim: %w", err)
	}

	return &scrim, nil
}

// GetActiveForUser returns the user's most recently created non-terminal
// scrim, or nil when they have none.
func (r *scrimRepo) GetActiveForUser(ctx context.Context, userID string) (*models.Scrim, error) {
	result, err := r.db.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.db.Table()),
		IndexName:              aws.String("GSI2"),
		KeyConditionExpression: aws.String("GSI2PK = :user"),
		FilterExpression:       aws.String("scrim_status IN (:open, :pending, :booked)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user":    &types.AttributeValueMemberS{Value: models.RequesterGSI2PK(userID)},
			":open":    &types.AttributeValueMemberS{Value: string(models.StatusOpen)},
			":pending": &types.AttributeValueMemberS{Value: string(models.StatusPending)},
			":booked":  &types.AttributeValueMemberS{Value: string(models.StatusBooked)},
		},
		ScanIndexForward: aws.Bool(false),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to query active scrim: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, nil
	}

	var scrim models.Scrim
	if err := attributevalue.UnmarshalMap(result.Items[0], &scrim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scrim: %w", err)
	}

	return &scrim, nil
}

// ListOpenOlderThan feeds the expiry sweep. RFC3339 timestamps in the sort
// key keep lexicographic order equal to chronological order.
func (r *scrimRepo) ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]models.Scrim, error) {
	result, err := r.db.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.db.Table()),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :open AND GSI1SK < :cutoff"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":open":   &types.AttributeValueMemberS{Value: models.StatusGSI1PK(models.StatusOpen)},
			":cutoff": &types.AttributeValueMemberS{Value: models.CreatedGSI1SK(cutoff.UTC().Format(time.RFC3339))},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to query stale scrims: %w", err)
	}

	var scrims []models.Scrim
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &scrims); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scrims: %w", err)
	}

	return scrims, nil
}

// ListOpenForUser returns the user's other open scrims, used to cascade
// expiry once one of their scrims is booked or played.
func (r *scrimRepo) ListOpenForUser(ctx context.Context, userID, excludeScrimID string) ([]models.Scrim, error) {
	result, err := r.db.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.db.Table()),
		IndexName:              aws.String("GSI2"),
		KeyConditionExpression: aws.String("GSI2PK = :user"),
		FilterExpression:       aws.String("scrim_status = :open AND scrim_id <> :exclude"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user":    &types.AttributeValueMemberS{Value: models.RequesterGSI2PK(userID)},
			":open":    &types.AttributeValueMemberS{Value: string(models.StatusOpen)},
			":exclude": &types.AttributeValueMemberS{Value: excludeScrimID},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to query open scrims for user: %w", err)
	}

	var scrims []models.Scrim
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &scrims); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scrims: %w", err)
	}

	return scrims, nil
}
