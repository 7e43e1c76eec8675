package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// DynamoStore implements ReviewStore and CredentialStore against two
// DynamoDB tables: AlbumReviews (albumId HASH, userId RANGE) and
// UserDiscogsCredentials (userId HASH).
type DynamoStore struct {
	client           *dynamodb.Client
	reviewsTable     string
	credentialsTable string
}

// Compile-time interface checks.
var (
	_ ReviewStore     = (*DynamoStore)(nil)
	_ CredentialStore = (*DynamoStore)(nil)
)

// NewDynamoStore creates a DynamoStore over the given tables.
// The client should be initialized from the shared AWS config.
func NewDynamoStore(client *dynamodb.Client, reviewsTable, credentialsTable string) *DynamoStore {
	return &DynamoStore{
		client:           client,
		reviewsTable:     reviewsTable,
		credentialsTable: credentialsTable,
	}
}

// reviewKey builds the composite key for the AlbumReviews table.
func reviewKey(albumID, userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"albumId": &types.AttributeValueMemberS{Value: albumID},
		"userId":  &types.AttributeValueMemberS{Value: userID},
	}
}

// GetReview reads the document for (albumID, userID).
// Returns (nil, nil) when no document exists.
func (s *DynamoStore) GetReview(ctx context.Context, albumID, userID string) (*AlbumReview, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.reviewsTable,
		Key:       reviewKey(albumID, userID),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem albumId=%s: %w", albumID, err)
	}
	if result.Item == nil {
		return nil, nil
	}
	var review AlbumReview
	if err := attributevalue.UnmarshalMap(result.Item, &review); err != nil {
		return nil, fmt.Errorf("unmarshal albumId=%s: %w", albumID, err)
	}
	return &review, nil
}

// PutReview writes the full document, replacing whatever was stored.
// Callers are expected to have merged against the existing document first.
func (s *DynamoStore) PutReview(ctx context.Context, review *AlbumReview) error {
	item, err := attributevalue.MarshalMap(review)
	if err != nil {
		return fmt.Errorf("marshal albumId=%s: %w", review.AlbumID, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.reviewsTable,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem albumId=%s: %w", review.AlbumID, err)
	}
	log.Debug().Str("albumId", review.AlbumID).Str("userId", review.UserID).Msg("Review document written")
	return nil
}

// DeleteReview removes the document for (albumID, userID). Deleting a
// missing document is not an error.
func (s *DynamoStore) DeleteReview(ctx context.Context, albumID, userID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.reviewsTable,
		Key:       reviewKey(albumID, userID),
	})
	if err != nil {
		return fmt.Errorf("DeleteItem albumId=%s: %w", albumID, err)
	}
	return nil
}

// GetCredentials reads a user's Discogs credentials.
// Returns (nil, nil) when the user has none stored.
func (s *DynamoStore) GetCredentials(ctx context.Context, userID string) (*Credentials, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.credentialsTable,
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem userId=%s: %w", userID, err)
	}
	if result.Item == nil {
		return nil, nil
	}
	var creds Credentials
	if err := attributevalue.UnmarshalMap(result.Item, &creds); err != nil {
		return nil, fmt.Errorf("unmarshal credentials userId=%s: %w", userID, err)
	}
	return &creds, nil
}

// PutCredentials stores a user's Discogs credentials, replacing any
// previous ones.
func (s *DynamoStore) PutCredentials(ctx context.Context, creds *Credentials) error {
	item, err := attributevalue.MarshalMap(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials userId=%s: %w", creds.UserID, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.credentialsTable,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem credentials userId=%s: %w", creds.UserID, err)
	}
	log.Debug().Str("userId", creds.UserID).Msg("Discogs credentials written")
	return nil
}
