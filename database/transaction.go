package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// maxTransactItems is DynamoDB's hard cap per TransactWriteItems call.
const maxTransactItems = 100

// TransactionBuilder accumulates writes that must commit or fail together,
// like a completion ack item and the counter bump on its scrim.
type TransactionBuilder struct {
	items []types.TransactWriteItem
}

func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{}
}

func (b *TransactionBuilder) AddPut(item types.Put) error {
	if err := b.checkCapacity(); err != nil {
		return err
	}
	b.items = append(b.items, types.TransactWriteItem{Put: &item})
	return nil
}

func (b *TransactionBuilder) AddUpdate(item types.Update) error {
	if err := b.checkCapacity(); err != nil {
		return err
	}
	b.items = append(b.items, types.TransactWriteItem{Update: &item})
	return nil
}

func (b *TransactionBuilder) AddDelete(item types.Delete) error {
	if err := b.checkCapacity(); err != nil {
		return err
	}
	b.items = append(b.items, types.TransactWriteItem{Delete: &item})
	return nil
}

// Execute submits the accumulated writes as one transaction. Condition
// failures surface as TransactionCanceledException with one cancellation
// reason per item, in insertion order.
func (b *TransactionBuilder) Execute(ctx context.Context, client *dynamodb.Client) error {
	if len(b.items) == 0 {
		return fmt.Errorf("no items in transaction")
	}

	_, err := client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: b.items,
	})
	return err
}

func (b *TransactionBuilder) Count() int {
	return len(b.items)
}

func (b *TransactionBuilder) checkCapacity() error {
	if len(b.items) >= maxTransactItems {
		return fmt.Errorf("transaction limit exceeded: %d items", maxTransactItems)
	}
	return nil
}
