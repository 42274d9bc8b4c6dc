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
	apperrors "github.com/ZayanAhmed07/SpikeLeagueScrim/errors"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

// AckRepository stores completion acknowledgments. RecordAck writes the
// ack item and bumps the scrim's ack_count in one transaction, so the
// count on the meta item can never drift from the ack items themselves.
type AckRepository interface {
	RecordAck(ctx context.Context, scrimID, userID string) (bool, error)
	HasAcked(ctx context.Context, scrimID, userID string) (bool, error)
}

type ackRepo struct {
	db              *database.DynamoDBClient
	transactionRepo database.TransactionRepository
}

func NewAckRepository(db *database.DynamoDBClient, transactionRepo database.TransactionRepository) AckRepository {
	return &ackRepo{db: db, transactionRepo: transactionRepo}
}

// RecordAck returns (true, nil) when the ack was inserted, (false, nil)
// when this user had already acked, and a CONFLICT error when the scrim is
// no longer booked.
func (r *ackRepo) RecordAck(ctx context.Context, scrimID, userID string) (bool, error) {
	putAck, err := r.putAckTransaction(scrimID, userID)
	if err != nil {
		return false, err
	}

	transactionBuilder := database.NewTransactionBuilder()
	transactionBuilder.AddPut(putAck)
	transactionBuilder.AddUpdate(r.incrementAckCountTransaction(scrimID))

	if err := r.transactionRepo.Execute(ctx, transactionBuilder); err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			// Reason order matches transaction item order: ack put first,
			// then the counter update on the meta item.
			if len(canceled.CancellationReasons) >= 1 && conditionFailed(canceled.CancellationReasons[0]) {
				return false, nil
			}
			if len(canceled.CancellationReasons) >= 2 && conditionFailed(canceled.CancellationReasons[1]) {
				return false, apperrors.Wrap(err, apperrors.CodeConflict, "scrim is no longer booked")
			}
		}
		return false, fmt.Errorf("failed to record completion ack: %w", err)
	}

	return true, nil
}

func (r *ackRepo) HasAcked(ctx context.Context, scrimID, userID string) (bool, error) {
	result, err := r.db.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.db.Table()),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.ScrimPK(scrimID)},
			"SK": &types.AttributeValueMemberS{Value: models.AckSK(userID)},
		},
	})

	if err != nil {
		return false, fmt.Errorf("failed to get completion ack: %w", err)
	}

	return result.Item != nil, nil
}

func (r *ackRepo) putAckTransaction(scrimID, userID string) (types.Put, error) {
	ack := &models.CompletionAck{
		ScrimID:     scrimID,
		UserID:      userID,
		ConfirmedAt: time.Now().UTC(),
		PK:          models.ScrimPK(scrimID),
		SK:          models.AckSK(userID),
	}

	item, err := attributevalue.MarshalMap(ack)
	if err != nil {
		return types.Put{}, fmt.Errorf("failed to marshal completion ack: %w", err)
	}

	return types.Put{
		TableName:           aws.String(r.db.Table()),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}, nil
}

func (r *ackRepo) incrementAckCountTransaction(scrimID string) types.Update {
	return types.Update{
		TableName: aws.String(r.db.Table()),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: models.ScrimPK(scrimID)},
			"SK": &types.AttributeValueMemberS{Value: models.MetaSK()},
		},
		UpdateExpression: aws.String("ADD ack_count :one SET updated_at = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":    &types.AttributeValueMemberN{Value: "1"},
			":now":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
			":booked": &types.AttributeValueMemberS{Value: string(models.StatusBooked)},
		},
		ConditionExpression: aws.String("attribute_exists(PK) AND scrim_status = :booked"),
	}
}

func conditionFailed(reason types.CancellationReason) bool {
	return reason.Code != nil && *reason.Code == "ConditionalCheckFailed"
}
