package s3gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

const (
	defaultObjectKey = "ledger/snapshot.json"
	contentTypeJSON  = "application/json"
	connectTimeout   = 5 * time.Second

	logMsgSnapshotLoaded  = "snapshot loaded from object storage"
	logMsgSnapshotSaved   = "snapshot saved to object storage"
	logMsgVersionConflict = "snapshot version conflict detected"
	logAttrError          = "error"
	logAttrObjectKey      = "object_key"
	logAttrVersion        = "version"
	logAttrDurationMS     = "duration_ms"
	metricLoadDuration    = "ledger_snapshot_load_duration_seconds"
	metricSaveDuration    = "ledger_snapshot_save_duration_seconds"
	metricLabelObjectKey  = "object_key"
)

var (
	// ErrNilBlobClient is returned when a Gateway is built without a client.
	ErrNilBlobClient = errors.New("blob client must not be nil")

	// ErrEmptyBucket is returned for an empty bucket name.
	ErrEmptyBucket = errors.New("bucket must not be empty")

	// ErrEmptyObjectKey is returned by WithObjectKey for an empty key.
	ErrEmptyObjectKey = errors.New("object key must not be empty")

	// ErrLoadingSnapshotFailed wraps storage failures during Load.
	ErrLoadingSnapshotFailed = errors.New("loading snapshot failed")

	// ErrSavingSnapshotFailed wraps storage failures during Save.
	ErrSavingSnapshotFailed = errors.New("saving snapshot failed")
)

// BlobClient is the object storage contract of the Gateway. The MinIO client
// satisfies it through minioBlobClient; tests supply fakes.
type BlobClient interface {
	Get(ctx context.Context, bucket string, key string) ([]byte, error)
	Put(ctx context.Context, bucket string, key string, payload []byte, contentType string) error
}

// ErrObjectNotFound is the sentinel a BlobClient returns for a missing object.
var ErrObjectNotFound = errors.New("object does not exist")

// Gateway is the object storage implementation of ledger.Gateway.
type Gateway struct {
	client    BlobClient
	bucket    string
	objectKey string
	logger    ledger.Logger
	metrics   ledger.MetricsCollector
}

var _ ledger.Gateway = Gateway{}

// NewGateway connects to an S3-compatible endpoint, ensures the bucket
// exists, and returns a Gateway storing the snapshot under one object key.
func NewGateway(
	endpoint string,
	accessKey string,
	secretKey string,
	bucket string,
	useSSL bool,
	options ...Option,
) (Gateway, error) {

	if bucket == "" {
		return Gateway{}, ErrEmptyBucket
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return Gateway{}, fmt.Errorf("init object storage client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return Gateway{}, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return Gateway{}, fmt.Errorf("create bucket: %w", err)
		}
	}

	return NewGatewayFromBlobClient(&minioBlobClient{client: client}, bucket, options...)
}

// NewGatewayFromBlobClient creates a Gateway on an existing client.
func NewGatewayFromBlobClient(client BlobClient, bucket string, options ...Option) (Gateway, error) {
	if client == nil {
		return Gateway{}, ErrNilBlobClient
	}
	if bucket == "" {
		return Gateway{}, ErrEmptyBucket
	}

	gateway := Gateway{
		client:    client,
		bucket:    bucket,
		objectKey: defaultObjectKey,
	}

	for _, option := range options {
		if err := option(&gateway); err != nil {
			return Gateway{}, err
		}
	}

	return gateway, nil
}

// Load reads and decodes the snapshot object. A missing object is reported
// as ledger.ErrSnapshotNotFound.
func (g Gateway) Load(ctx context.Context) (ledger.Snapshot, error) {
	start := time.Now()

	payload, err := g.client.Get(ctx, g.bucket, g.objectKey)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return ledger.Snapshot{}, ledger.ErrSnapshotNotFound
		}

		g.logError(err)

		return ledger.Snapshot{}, errors.Join(ErrLoadingSnapshotFailed, err)
	}

	snapshot, decodeErr := ledger.DecodeSnapshot(payload)
	if decodeErr != nil {
		return ledger.Snapshot{}, decodeErr
	}

	g.observe(logMsgSnapshotLoaded, metricLoadDuration, time.Since(start), snapshot.Version)

	return snapshot, nil
}

// Save writes the snapshot after verifying that the stored object still
// carries the expected version. The version lives inside the JSON payload;
// see the package comment for the consistency guarantees of this check.
func (g Gateway) Save(
	ctx context.Context,
	snapshot ledger.Snapshot,
	expectedVersion ledger.SnapshotVersionUint,
) (ledger.SnapshotVersionUint, error) {

	start := time.Now()

	currentVersion, err := g.storedVersion(ctx)
	if err != nil {
		return 0, err
	}

	if currentVersion != expectedVersion {
		if g.logger != nil {
			g.logger.Info(logMsgVersionConflict,
				logAttrObjectKey, g.objectKey,
				logAttrVersion, currentVersion,
			)
		}

		return 0, ledger.ErrVersionConflict
	}

	newVersion := expectedVersion + 1
	snapshot.Version = newVersion

	payload, encodeErr := ledger.EncodeSnapshot(snapshot)
	if encodeErr != nil {
		return 0, encodeErr
	}

	if putErr := g.client.Put(ctx, g.bucket, g.objectKey, payload, contentTypeJSON); putErr != nil {
		g.logError(putErr)
		return 0, errors.Join(ErrSavingSnapshotFailed, putErr)
	}

	g.observe(logMsgSnapshotSaved, metricSaveDuration, time.Since(start), newVersion)

	return newVersion, nil
}

func (g Gateway) storedVersion(ctx context.Context) (ledger.SnapshotVersionUint, error) {
	payload, err := g.client.Get(ctx, g.bucket, g.objectKey)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return 0, nil
		}

		g.logError(err)

		return 0, errors.Join(ErrSavingSnapshotFailed, err)
	}

	stored, decodeErr := ledger.DecodeSnapshot(payload)
	if decodeErr != nil {
		return 0, decodeErr
	}

	return stored.Version, nil
}

func (g Gateway) logError(err error) {
	if g.logger != nil {
		g.logger.Error("object storage operation failed", logAttrError, err.Error(), logAttrObjectKey, g.objectKey)
	}
}

func (g Gateway) observe(
	msg string,
	metric string,
	duration time.Duration,
	version ledger.SnapshotVersionUint,
) {

	if g.logger != nil {
		g.logger.Info(msg,
			logAttrObjectKey, g.objectKey,
			logAttrVersion, version,
			logAttrDurationMS, duration.Milliseconds(),
		)
	}

	if g.metrics != nil {
		g.metrics.RecordDuration(metric, duration, map[string]string{metricLabelObjectKey: g.objectKey})
	}
}

// minioBlobClient adapts the MinIO client to the BlobClient contract.
type minioBlobClient struct {
	client *minio.Client
}

func (m *minioBlobClient) Get(ctx context.Context, bucket string, key string) ([]byte, error) {
	object, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = object.Close() }()

	payload, readErr := io.ReadAll(object)
	if readErr != nil {
		// The MinIO client reports a missing object on first read, not on open.
		response := minio.ToErrorResponse(readErr)
		if response.Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}

		return nil, readErr
	}

	return payload, nil
}

func (m *minioBlobClient) Put(ctx context.Context, bucket string, key string, payload []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, bucket, key, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: contentType})

	return err
}
