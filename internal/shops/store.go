package shops

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imrishuroy/go-heatingoil-orderflow/internal/aws"
)

// Tables names the DynamoDB tables backing shop data.
type Tables struct {
	Shops              string
	BankAccounts       string
	EmailConfigs       string
	PaymentMethods     string
	ShopPaymentMethods string
}

// Store reads shops and their configuration. All getters return (nil, nil) if not found.
type Store struct {
	client aws.DynamoDBAPI
	tables Tables
}

func NewStore(client aws.DynamoDBAPI, tables Tables) *Store {
	return &Store{client: client, tables: tables}
}

func (s *Store) GetShop(ctx context.Context, shopID string) (*Shop, error) {
	var shop Shop
	found, err := s.get(ctx, s.tables.Shops, "shop_id", shopID, &shop)
	if err != nil || !found {
		return nil, err
	}
	return &shop, nil
}

func (s *Store) GetBankAccount(ctx context.Context, bankAccountID string) (*BankAccount, error) {
	var acc BankAccount
	found, err := s.get(ctx, s.tables.BankAccounts, "bank_account_id", bankAccountID, &acc)
	if err != nil || !found {
		return nil, err
	}
	return &acc, nil
}

func (s *Store) GetEmailConfig(ctx context.Context, emailConfigID string) (*EmailConfig, error) {
	var cfg EmailConfig
	found, err := s.get(ctx, s.tables.EmailConfigs, "email_config_id", emailConfigID, &cfg)
	if err != nil || !found {
		return nil, err
	}
	return &cfg, nil
}

// batchGetLimit is the most keys DynamoDB accepts in one BatchGetItem call.
const batchGetLimit = 100

// maxBatchRounds bounds how often unprocessed keys are resubmitted.
const maxBatchRounds = 5

// ListActivePaymentMethods returns the methods linked to the shop where both the link
// and the method itself are active, in link order.
func (s *Store) ListActivePaymentMethods(ctx context.Context, shopID string) ([]PaymentMethod, error) {
	paginator := dyn.NewQueryPaginator(s.client, &dyn.QueryInput{
		TableName:              &s.tables.ShopPaymentMethods,
		KeyConditionExpression: awsString("shop_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: shopID},
		},
	})

	var ids []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query shop payment methods: %w", err)
		}
		var links []ShopPaymentMethod
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &links); err != nil {
			return nil, fmt.Errorf("unmarshal shop payment methods: %w", err)
		}
		for _, l := range links {
			if l.IsActive {
				ids = append(ids, l.PaymentMethodID)
			}
		}
	}

	byID, err := s.batchGetPaymentMethods(ctx, ids)
	if err != nil {
		return nil, err
	}
	methods := make([]PaymentMethod, 0, len(ids))
	for _, id := range ids {
		if pm, ok := byID[id]; ok && pm.IsActive {
			methods = append(methods, pm)
		}
	}
	return methods, nil
}

func (s *Store) batchGetPaymentMethods(ctx context.Context, ids []string) (map[string]PaymentMethod, error) {
	out := make(map[string]PaymentMethod, len(ids))
	for start := 0; start < len(ids); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(ids) {
			end = len(ids)
		}
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, map[string]types.AttributeValue{
				"payment_method_id": &types.AttributeValueMemberS{Value: id},
			})
		}

		request := map[string]types.KeysAndAttributes{s.tables.PaymentMethods: {Keys: keys}}
		for round := 0; len(request) > 0; round++ {
			if round == maxBatchRounds {
				return nil, fmt.Errorf("batch get payment methods: keys still unprocessed after %d rounds", maxBatchRounds)
			}
			res, err := s.client.BatchGetItem(ctx, &dyn.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, fmt.Errorf("batch get payment methods: %w", err)
			}
			var found []PaymentMethod
			if err := attributevalue.UnmarshalListOfMaps(res.Responses[s.tables.PaymentMethods], &found); err != nil {
				return nil, fmt.Errorf("unmarshal payment methods: %w", err)
			}
			for _, pm := range found {
				out[pm.PaymentMethodID] = pm
			}
			request = res.UnprocessedKeys
		}
	}
	return out, nil
}

func (s *Store) get(ctx context.Context, table, keyName, keyValue string, out any) (bool, error) {
	res, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &table,
		Key: map[string]types.AttributeValue{
			keyName: &types.AttributeValueMemberS{Value: keyValue},
		},
	})
	if err != nil {
		return false, fmt.Errorf("get %s item: %w", table, err)
	}
	if len(res.Item) == 0 {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return false, fmt.Errorf("unmarshal %s item: %w", table, err)
	}
	return true, nil
}

func awsString(s string) *string { return &s }
