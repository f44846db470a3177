package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cloud-wave-best-zizon/cart-service/internal/domain"
)

var ErrProductExists = errors.New("product already exists")

type dynamoAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoCatalogRepository serves the catalog from a DynamoDB table keyed by
// the numeric product id.
type DynamoCatalogRepository struct {
	client    dynamoAPI
	tableName string
}

func NewDynamoDBClient(ctx context.Context, region string) (*dynamodb.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg), nil
}

func NewDynamoCatalogRepository(client dynamoAPI, tableName string) *DynamoCatalogRepository {
	return &DynamoCatalogRepository{
		client:    client,
		tableName: tableName,
	}
}

// FetchProducts scans the whole table and returns the products ordered by id.
// The stored quantity is never projected; the cart assigns its own.
func (r *DynamoCatalogRepository) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	projection := expression.NamesList(
		expression.Name("id"),
		expression.Name("title"),
		expression.Name("price"),
		expression.Name("description"),
		expression.Name("category"),
		expression.Name("image"),
		expression.Name("rating"),
	)
	expr, err := expression.NewBuilder().WithProjection(projection).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build projection: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		ExpressionAttributeNames: expr.Names(),
		ProjectionExpression:     expr.Projection(),
	})

	products := []domain.Product{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan %s: %w", ErrCatalogUnavailable, r.tableName, err)
		}

		var batch []domain.Product
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal products: %w", err)
		}
		products = append(products, batch...)
	}

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *DynamoCatalogRepository) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	av, err := attributevalue.MarshalMap(product)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product: %w", err)
	}

	// 같은 id가 이미 있으면 덮어쓰지 않는다
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("id"))).
		Build()
	if err != nil {
		return nil, err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrProductExists
		}
		return nil, fmt.Errorf("failed to put item: %w", err)
	}

	return &product, nil
}
