package journal

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultCollection = "journal_entries"

// FirestoreStore persists journal entries in Google Cloud Firestore.
// Document IDs are Firestore-generated; the userId and createdAt fields
// need a composite index for ListByUser.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// FirestoreConfig configures a FirestoreStore.
type FirestoreConfig struct {
	// ProjectID is the GCP project (required).
	ProjectID string
	// Collection overrides the default collection name.
	Collection string
	// CredentialsFile uses service account credentials instead of
	// Application Default Credentials.
	CredentialsFile string
}

// NewFirestoreStore creates a store backed by Firestore.
func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}

	return &FirestoreStore{client: client, collection: collection}, nil
}

// Create persists a new entry and returns its document ID.
func (s *FirestoreStore) Create(ctx context.Context, entry *Entry) (string, error) {
	ref, _, err := s.client.Collection(s.collection).Add(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("failed to create journal entry: %w", err)
	}
	return ref.ID, nil
}

// Get retrieves an entry by document ID.
func (s *FirestoreStore) Get(ctx context.Context, id string) (*Entry, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	var entry Entry
	if err := snap.DataTo(&entry); err != nil {
		return nil, fmt.Errorf("failed to decode journal entry: %w", err)
	}
	entry.ID = snap.Ref.ID
	return &entry, nil
}

// ListByUser returns a user's entries, most recent first.
func (s *FirestoreStore) ListByUser(ctx context.Context, userID string, limit int) ([]*Entry, error) {
	query := s.client.Collection(s.collection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []*Entry
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list journal entries: %w", err)
		}

		var entry Entry
		if err := snap.DataTo(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode journal entry: %w", err)
		}
		entry.ID = snap.Ref.ID
		out = append(out, &entry)
	}
	return out, nil
}

// Close releases the underlying client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
