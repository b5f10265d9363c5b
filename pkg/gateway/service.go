package gateway

import (
	"context"
	"strings"

	appcontext "github.com/darksworm/mongonaut/pkg/context"
	apperrors "github.com/darksworm/mongonaut/pkg/errors"
	"github.com/darksworm/mongonaut/pkg/model"
)

const (
	filesSuffix  = ".files"
	chunksSuffix = ".chunks"
	// a database only exists on the server once it holds a collection
	initCollection = "_init"
)

// Service implements the entity operations on top of a session's backend
type Service struct {
	readOnly bool
}

// NewService creates a service. A read-only service rejects every mutation.
func NewService(readOnly bool) *Service {
	return &Service{readOnly: readOnly}
}

func (s *Service) checkWritable() error {
	if s.readOnly {
		return apperrors.New(apperrors.ErrorAPI, CodeReadOnly, "The gateway is read-only")
	}
	return nil
}

// ListDatabases lists the databases visible to the session. Credentials that
// may not list databases fall back to the ones they authenticated against.
func (s *Service) ListDatabases(ctx context.Context, sess *Session) ([]DatabaseInfo, error) {
	dbs, err := sess.Backend.ListDatabases(ctx)
	if err != nil {
		if isUnauthorized(err) {
			out := make([]DatabaseInfo, len(sess.Readable))
			for i, name := range sess.Readable {
				out[i] = DatabaseInfo{Name: name}
			}
			return out, nil
		}
		return nil, backendError(err, "Failed to list databases")
	}
	return dbs, nil
}

func (s *Service) databaseExists(ctx context.Context, sess *Session, name string) (bool, error) {
	dbs, err := s.ListDatabases(ctx, sess)
	if err != nil {
		return false, err
	}
	for _, db := range dbs {
		if db.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateDatabase creates name by creating its first collection
func (s *Service) CreateDatabase(ctx context.Context, sess *Session, name string) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	if err := model.ValidateName(model.KindDatabase, "", name); err != nil {
		return err
	}
	exists, err := s.databaseExists(ctx, sess, name)
	if err != nil {
		return err
	}
	if exists {
		return alreadyExists(CodeDBAlreadyExists, "Database", name)
	}
	if err := sess.Backend.CreateCollection(ctx, name, initCollection, CollectionOptions{}); err != nil {
		return backendError(err, "Failed to create database")
	}
	return nil
}

// DropDatabase drops name and everything in it
func (s *Service) DropDatabase(ctx context.Context, sess *Session, name string) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	exists, err := s.databaseExists(ctx, sess, name)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(CodeDBNotFound, "Database", name)
	}
	if err := sess.Backend.DropDatabase(ctx, name); err != nil {
		return backendError(err, "Failed to drop database")
	}
	return nil
}

func (s *Service) requireDatabase(ctx context.Context, sess *Session, name string) error {
	exists, err := s.databaseExists(ctx, sess, name)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(CodeDBNotFound, "Database", name)
	}
	return nil
}

// ListCollections lists plain collections, hiding system namespaces and
// the two halves of every GridFS bucket
func (s *Service) ListCollections(ctx context.Context, sess *Session, database string) ([]CollectionInfo, error) {
	all, err := s.namespaces(ctx, sess, database)
	if err != nil {
		return nil, err
	}
	buckets := bucketNames(all)
	var out []CollectionInfo
	for _, c := range all {
		if strings.HasPrefix(c.Name, "system.") || isBucketPart(c.Name, buckets) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// ListBuckets lists GridFS buckets, detected by their "<name>.files" collection
func (s *Service) ListBuckets(ctx context.Context, sess *Session, database string) ([]string, error) {
	all, err := s.namespaces(ctx, sess, database)
	if err != nil {
		return nil, err
	}
	return bucketNames(all), nil
}

func (s *Service) namespaces(ctx context.Context, sess *Session, database string) ([]CollectionInfo, error) {
	if err := s.requireDatabase(ctx, sess, database); err != nil {
		return nil, err
	}
	all, err := sess.Backend.ListCollections(ctx, database)
	if err != nil {
		return nil, backendError(err, "Failed to list collections")
	}
	return all, nil
}

// CreateCollection creates database.name with opts
func (s *Service) CreateCollection(ctx context.Context, sess *Session, database, name string, opts CollectionOptions) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	if err := model.ValidateName(model.KindCollection, database, name); err != nil {
		return err
	}
	if opts.Capped && opts.Size <= 0 {
		return invalidRequest("Capped collections need a size in bytes")
	}
	all, err := s.namespaces(ctx, sess, database)
	if err != nil {
		return err
	}
	if hasNamespace(all, name) {
		return alreadyExists(CodeCollectionAlreadyExists, "Collection", name)
	}
	if err := sess.Backend.CreateCollection(ctx, database, name, opts); err != nil {
		return backendError(err, "Failed to create collection")
	}
	return nil
}

// DropCollection drops database.name
func (s *Service) DropCollection(ctx context.Context, sess *Session, database, name string) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	all, err := s.namespaces(ctx, sess, database)
	if err != nil {
		return err
	}
	if !hasNamespace(all, name) {
		return notFound(CodeCollectionNotFound, "Collection", name)
	}
	if err := sess.Backend.DropCollection(ctx, database, name); err != nil {
		return backendError(err, "Failed to drop collection")
	}
	return nil
}

// CreateBucket creates the files and chunks collections of a bucket
func (s *Service) CreateBucket(ctx context.Context, sess *Session, database, name string) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	if err := model.ValidateName(model.KindBucket, database, name); err != nil {
		return err
	}
	all, err := s.namespaces(ctx, sess, database)
	if err != nil {
		return err
	}
	if hasNamespace(all, name+filesSuffix) {
		return alreadyExists(CodeBucketAlreadyExists, "Bucket", name)
	}
	for _, suffix := range []string{filesSuffix, chunksSuffix} {
		if hasNamespace(all, name+suffix) {
			continue
		}
		if err := sess.Backend.CreateCollection(ctx, database, name+suffix, CollectionOptions{}); err != nil {
			return backendError(err, "Failed to create bucket")
		}
	}
	return nil
}

// DropBucket drops both collections of a bucket
func (s *Service) DropBucket(ctx context.Context, sess *Session, database, name string) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	all, err := s.namespaces(ctx, sess, database)
	if err != nil {
		return err
	}
	if !hasNamespace(all, name+filesSuffix) {
		return notFound(CodeBucketNotFound, "Bucket", name)
	}
	for _, suffix := range []string{filesSuffix, chunksSuffix} {
		if !hasNamespace(all, name+suffix) {
			continue
		}
		if err := sess.Backend.DropCollection(ctx, database, name+suffix); err != nil {
			return backendError(err, "Failed to drop bucket")
		}
	}
	return nil
}

func hasNamespace(all []CollectionInfo, name string) bool {
	for _, c := range all {
		if c.Name == name {
			return true
		}
	}
	return false
}

// bucketNames keeps server order
func bucketNames(all []CollectionInfo) []string {
	var out []string
	for _, c := range all {
		if strings.HasSuffix(c.Name, filesSuffix) && len(c.Name) > len(filesSuffix) {
			out = append(out, strings.TrimSuffix(c.Name, filesSuffix))
		}
	}
	return out
}

func isBucketPart(name string, buckets []string) bool {
	for _, b := range buckets {
		if name == b+filesSuffix || name == b+chunksSuffix {
			return true
		}
	}
	return false
}

// backendError wraps driver failures that are not domain outcomes
func backendError(err error, message string) error {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	if isUnauthorized(err) {
		return apperrors.Wrap(err, apperrors.ErrorAuth, CodeNeedAuthorisation, "Not authorised for this operation")
	}
	if appcontext.IsTimeout(err) {
		return apperrors.Wrap(err, apperrors.ErrorTimeout, CodeMongoTimeout, message+": MongoDB did not answer in time")
	}
	return apperrors.Wrap(err, apperrors.ErrorInternal, CodeServerError, message)
}
