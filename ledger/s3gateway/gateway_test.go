package s3gateway_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeshelf/lending-ledger-go/ledger"
	"github.com/homeshelf/lending-ledger-go/ledger/s3gateway"
)

func Test_NewGatewayFromBlobClient_ValidatesInputs(t *testing.T) {
	_, err := s3gateway.NewGatewayFromBlobClient(nil, "shelf")
	assert.ErrorIs(t, err, s3gateway.ErrNilBlobClient)

	_, err = s3gateway.NewGatewayFromBlobClient(newBlobClientFake(), "")
	assert.ErrorIs(t, err, s3gateway.ErrEmptyBucket)

	_, err = s3gateway.NewGatewayFromBlobClient(newBlobClientFake(), "shelf", s3gateway.WithObjectKey(""))
	assert.ErrorIs(t, err, s3gateway.ErrEmptyObjectKey)
}

func Test_Load_NotFound_WhenBucketEmpty(t *testing.T) {
	// arrange
	gateway := givenGateway(t, newBlobClientFake())

	// act
	_, err := gateway.Load(context.Background())

	// assert
	assert.ErrorIs(t, err, ledger.ErrSnapshotNotFound)
}

func Test_SaveAndLoad_RoundTrip(t *testing.T) {
	// arrange
	ctx := context.Background()
	gateway := givenGateway(t, newBlobClientFake())

	snapshot := ledger.EmptySnapshot()
	book, err := ledger.BuildBook(ledger.NewBookID(), "Dune", "Herbert", ledger.KindPhysical, time.Now())
	require.NoError(t, err)
	snapshot.Books = append(snapshot.Books, book)

	// act
	version, err := gateway.Save(ctx, snapshot, 0)
	require.NoError(t, err)

	loaded, err := gateway.Load(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, ledger.SnapshotVersionUint(1), version)
	assert.Equal(t, version, loaded.Version)
	require.Len(t, loaded.Books, 1)
	assert.Equal(t, "Dune", loaded.Books[0].Title)
}

func Test_Save_VersionConflict_WhenStoredVersionMoved(t *testing.T) {
	// arrange
	ctx := context.Background()
	gateway := givenGateway(t, newBlobClientFake())

	_, err := gateway.Save(ctx, ledger.EmptySnapshot(), 0)
	require.NoError(t, err)

	// act - a second writer still expects the empty bucket
	_, err = gateway.Save(ctx, ledger.EmptySnapshot(), 0)

	// assert
	assert.ErrorIs(t, err, ledger.ErrVersionConflict)
}

func Test_Save_Error_OnStorageFailure(t *testing.T) {
	// arrange
	client := newBlobClientFake()
	client.putErr = assert.AnError
	gateway := givenGateway(t, client)

	// act
	_, err := gateway.Save(context.Background(), ledger.EmptySnapshot(), 0)

	// assert
	assert.ErrorIs(t, err, s3gateway.ErrSavingSnapshotFailed)
}

func givenGateway(t *testing.T, client s3gateway.BlobClient) s3gateway.Gateway {
	t.Helper()

	gateway, err := s3gateway.NewGatewayFromBlobClient(client, "shelf")
	require.NoError(t, err)

	return gateway
}

// blobClientFake stores objects in memory, keyed by bucket and key.
type blobClientFake struct {
	objects map[string][]byte
	putErr  error
}

func newBlobClientFake() *blobClientFake {
	return &blobClientFake{objects: make(map[string][]byte)}
}

func (f *blobClientFake) Get(_ context.Context, bucket string, key string) ([]byte, error) {
	payload, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, s3gateway.ErrObjectNotFound
	}

	return payload, nil
}

func (f *blobClientFake) Put(_ context.Context, bucket string, key string, payload []byte, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}

	f.objects[bucket+"/"+key] = payload

	return nil
}
