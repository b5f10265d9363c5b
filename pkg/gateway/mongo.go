package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/darksworm/mongonaut/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// server error codes that mean the credentials are not good enough
var unauthorizedCodes = []int{13, 18}

// MongoDialer opens driver clients
type MongoDialer struct {
	cfg config.MongoClientConfig
}

// NewMongoDialer creates a dialer with the gateway's driver settings
func NewMongoDialer(cfg config.MongoClientConfig) *MongoDialer {
	return &MongoDialer{cfg: cfg}
}

// Dial connects to the server described by details
func (d *MongoDialer) Dial(ctx context.Context, details ConnectionDetails) (Backend, error) {
	opts := options.Client().
		SetHosts([]string{net.JoinHostPort(details.Host, strconv.Itoa(details.Port))}).
		SetDirect(true)
	if d.cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(d.cfg.ConnectTimeout)
	}
	if d.cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(d.cfg.ServerSelectionTimeout)
	}
	if d.cfg.AppName != "" {
		opts.SetAppName(d.cfg.AppName)
	}
	if details.Username != "" {
		source := d.cfg.AuthSource
		if source == "" {
			source = "admin"
		}
		opts.SetAuth(options.Credential{
			AuthSource: source,
			Username:   details.Username,
			Password:   details.Password,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &mongoBackend{client: client}, nil
}

type mongoBackend struct {
	client *mongo.Client
}

func (b *mongoBackend) ListDatabases(ctx context.Context) ([]DatabaseInfo, error) {
	res, err := b.client.ListDatabases(ctx, bson.D{})
	if err != nil {
		return nil, classify(err)
	}
	out := make([]DatabaseInfo, 0, len(res.Databases))
	for _, spec := range res.Databases {
		out = append(out, DatabaseInfo{Name: spec.Name, SizeOnDisk: spec.SizeOnDisk, Empty: spec.Empty})
	}
	return out, nil
}

func (b *mongoBackend) ListCollections(ctx context.Context, database string) ([]CollectionInfo, error) {
	specs, err := b.client.Database(database).ListCollectionSpecifications(ctx, bson.D{})
	if err != nil {
		return nil, classify(err)
	}
	out := make([]CollectionInfo, 0, len(specs))
	for _, spec := range specs {
		info := CollectionInfo{Name: spec.Name, Type: spec.Type}
		if capped, ok := spec.Options.Lookup("capped").BooleanOK(); ok {
			info.Capped = capped
		}
		out = append(out, info)
	}
	return out, nil
}

func (b *mongoBackend) CanRead(ctx context.Context, database string) bool {
	_, err := b.client.Database(database).ListCollectionNames(ctx, bson.D{})
	return err == nil
}

func (b *mongoBackend) CreateCollection(ctx context.Context, database, name string, opts CollectionOptions) error {
	create := options.CreateCollection()
	if opts.Capped {
		create.SetCapped(true).SetSizeInBytes(opts.Size)
		if opts.Max > 0 {
			create.SetMaxDocuments(opts.Max)
		}
	}
	return classify(b.client.Database(database).CreateCollection(ctx, name, create))
}

func (b *mongoBackend) DropCollection(ctx context.Context, database, name string) error {
	return classify(b.client.Database(database).Collection(name).Drop(ctx))
}

func (b *mongoBackend) DropDatabase(ctx context.Context, database string) error {
	return classify(b.client.Database(database).Drop(ctx))
}

func (b *mongoBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

// classify tags authorisation failures so the service can map them
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		for _, code := range unauthorizedCodes {
			if se.HasErrorCode(code) {
				return fmt.Errorf("%w: %w", ErrUnauthorized, err)
			}
		}
	}
	return err
}
