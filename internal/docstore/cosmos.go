package docstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/semifinals/users/internal/patch"
)

// CosmosStore is a Store backed by an Azure Cosmos DB account.
type CosmosStore struct {
	client   *azcosmos.Client
	database string
}

// NewCosmos creates a CosmosStore for the given account endpoint and key.
// No request is made until the first container is opened.
func NewCosmos(endpoint, key, database string) (*CosmosStore, error) {
	cred, err := azcosmos.NewKeyCredential(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cosmos credential: %w", err)
	}

	client, err := azcosmos.NewClientWithKey(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cosmos client: %w", err)
	}

	return &CosmosStore{client: client, database: database}, nil
}

// EnsureContainer gets or creates the database and the container.
func (s *CosmosStore) EnsureContainer(ctx context.Context, name, partitionKeyPath string) (Container, error) {
	db, err := s.ensureDatabase(ctx)
	if err != nil {
		return nil, err
	}

	cc, err := db.NewContainer(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open container %s: %w", name, err)
	}

	resp, err := cc.Read(ctx, nil)
	switch {
	case err == nil:
		if props := resp.ContainerProperties; props != nil && !slices.Contains(props.PartitionKeyDefinition.Paths, partitionKeyPath) {
			return nil, fmt.Errorf("%w: %s has %v", ErrPartitionKeyMismatch, name, props.PartitionKeyDefinition.Paths)
		}
	case statusCode(err) == http.StatusNotFound:
		props := azcosmos.ContainerProperties{
			ID: name,
			PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
				Paths: []string{partitionKeyPath},
			},
		}
		if _, err := db.CreateContainer(ctx, props, nil); err != nil && statusCode(err) != http.StatusConflict {
			return nil, fmt.Errorf("failed to create container %s: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("failed to read container %s: %w", name, err)
	}

	return &cosmosContainer{client: cc, name: name, pkPath: partitionKeyPath}, nil
}

func (s *CosmosStore) ensureDatabase(ctx context.Context) (*azcosmos.DatabaseClient, error) {
	db, err := s.client.NewDatabase(s.database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", s.database, err)
	}

	_, err = db.Read(ctx, nil)
	if err == nil {
		return db, nil
	}
	if statusCode(err) != http.StatusNotFound {
		return nil, fmt.Errorf("failed to read database %s: %w", s.database, err)
	}

	// Concurrent creators race here; losing with 409 is fine.
	_, err = s.client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: s.database}, nil)
	if err != nil && statusCode(err) != http.StatusConflict {
		return nil, fmt.Errorf("failed to create database %s: %w", s.database, err)
	}
	return db, nil
}

// Ping reads the database. A missing database still proves the account is
// reachable.
func (s *CosmosStore) Ping(ctx context.Context) error {
	db, err := s.client.NewDatabase(s.database)
	if err != nil {
		return err
	}
	if _, err := db.Read(ctx, nil); err != nil && statusCode(err) != http.StatusNotFound {
		return err
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *CosmosStore) Close() error {
	return nil
}

type cosmosContainer struct {
	client *azcosmos.ContainerClient
	name   string
	pkPath string
}

func (c *cosmosContainer) Name() string             { return c.name }
func (c *cosmosContainer) PartitionKeyPath() string { return c.pkPath }

func (c *cosmosContainer) GetItem(ctx context.Context, id, partitionKey string) ([]byte, bool, error) {
	resp, err := c.client.ReadItem(ctx, azcosmos.NewPartitionKeyString(partitionKey), id, nil)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read item %s: %w", id, err)
	}
	return resp.Value, true, nil
}

func (c *cosmosContainer) CreateItem(ctx context.Context, partitionKey string, doc []byte) ([]byte, error) {
	opts := &azcosmos.ItemOptions{EnableContentResponseOnWrite: true}

	resp, err := c.client.CreateItem(ctx, azcosmos.NewPartitionKeyString(partitionKey), doc, opts)
	if err != nil {
		switch statusCode(err) {
		case http.StatusConflict:
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		case http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return resp.Value, nil
}

func (c *cosmosContainer) PatchItem(ctx context.Context, id, partitionKey string, ops []patch.Operation, cond Condition) ([]byte, error) {
	patchOps, err := cosmosPatch(ops, cond)
	if err != nil {
		return nil, err
	}

	opts := &azcosmos.ItemOptions{EnableContentResponseOnWrite: true}

	resp, err := c.client.PatchItem(ctx, azcosmos.NewPartitionKeyString(partitionKey), id, patchOps, opts)
	if err != nil {
		switch statusCode(err) {
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		case http.StatusPreconditionFailed:
			return nil, fmt.Errorf("%w: %s", ErrPreconditionFailed, id)
		case http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
		}
		return nil, fmt.Errorf("failed to patch item %s: %w", id, err)
	}
	return resp.Value, nil
}

func (c *cosmosContainer) DeleteItem(ctx context.Context, id, partitionKey string) (bool, error) {
	_, err := c.client.DeleteItem(ctx, azcosmos.NewPartitionKeyString(partitionKey), id, nil)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return true, nil
}

// cosmosPatch converts patch operations and a condition into the SDK form.
func cosmosPatch(ops []patch.Operation, cond Condition) (azcosmos.PatchOperations, error) {
	var out azcosmos.PatchOperations

	for _, op := range ops {
		switch op.Op {
		case patch.OpSet:
			out.AppendSet(op.Path, op.Value)
		case patch.OpRemove:
			out.AppendRemove(op.Path)
		default:
			return out, fmt.Errorf("%w: unsupported op %q", ErrInvalidPatch, op.Op)
		}
	}

	sql, err := cond.SQL()
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	if sql != "" {
		out.SetCondition(sql)
	}

	return out, nil
}

// statusCode returns the HTTP status of a Cosmos response error, or 0.
func statusCode(err error) int {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}
