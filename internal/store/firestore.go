// Package store implements checkout.UserStore on Firestore, plus an in-memory
// version for tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"

	"github.com/lucascsr96/SynkCamp/internal/types"
)

// FieldSubscriptionStatus is the user-document field written on checkout
// completion.
const FieldSubscriptionStatus = "subscriptionStatus"

// DefaultUsersCollection is the collection holding one document per user,
// keyed by user ID.
const DefaultUsersCollection = "users"

// FirestoreConfig holds the settings for NewFirestoreUserStore.
type FirestoreConfig struct {
	// CredentialsJSON is the service-account key. Required.
	CredentialsJSON types.SecretString
	// ProjectID overrides the project_id embedded in the key.
	ProjectID  string
	Collection string
}

// FirestoreUserStore writes subscription status to Firestore user documents.
type FirestoreUserStore struct {
	client     *firestore.Client
	collection string
	logger     *slog.Logger
}

// NewFirestoreUserStore initializes a Firebase app from the service-account
// key and opens its Firestore client. Close releases the client.
func NewFirestoreUserStore(ctx context.Context, cfg FirestoreConfig, logger *slog.Logger) (*FirestoreUserStore, error) {
	if !cfg.CredentialsJSON.IsSet() {
		return nil, errors.New("firestore: service account key is not configured")
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON.Unmask())))
	if err != nil {
		return nil, fmt.Errorf("firestore: initializing firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: opening client: %w", err)
	}

	return NewFirestoreUserStoreFromClient(client, cfg.Collection, logger), nil
}

// NewFirestoreUserStoreFromClient wraps an existing client.
func NewFirestoreUserStoreFromClient(client *firestore.Client, collection string, logger *slog.Logger) *FirestoreUserStore {
	if collection == "" {
		collection = DefaultUsersCollection
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FirestoreUserStore{
		client:     client,
		collection: collection,
		logger:     logger,
	}
}

// SetSubscriptionStatus overwrites the subscriptionStatus field of the user's
// document. Other fields are left alone and nothing is read first. The
// document must already exist.
func (s *FirestoreUserStore) SetSubscriptionStatus(ctx context.Context, userID string, status types.SubscriptionStatus) error {
	if userID == "" {
		return errors.New("firestore: empty user id")
	}

	_, err := s.client.Collection(s.collection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: FieldSubscriptionStatus, Value: string(status)},
	})
	if err != nil {
		return fmt.Errorf("firestore: updating %s/%s: %w", s.collection, userID, err)
	}

	s.logger.DebugContext(ctx, "subscription status written",
		"collection", s.collection,
		"user_id", userID,
		"status", status,
	)
	return nil
}

// GetUser reads the subscription-relevant part of a user document.
func (s *FirestoreUserStore) GetUser(ctx context.Context, userID string) (*types.UserRecord, error) {
	snap, err := s.client.Collection(s.collection).Doc(userID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: reading %s/%s: %w", s.collection, userID, err)
	}

	var rec types.UserRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("firestore: decoding %s/%s: %w", s.collection, userID, err)
	}
	rec.ID = userID
	return &rec, nil
}

// Close releases the Firestore client.
func (s *FirestoreUserStore) Close() error {
	return s.client.Close()
}
