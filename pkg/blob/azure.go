package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	azblobblob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/multierr"
)

// AzureConfig holds the parameters of the Azure Blob Storage driver.
type AzureConfig struct {
	ConnectionString string //nolint:gosec //#gosec G117 -- FP, we don't marshal this object into JSON
}

// Azure implements Store upon Azure Blob Storage block blobs.
type Azure struct {
	client *azblob.Client
}

var _ Store = (*Azure)(nil)

// NewAzure builds an Azure store from a storage account connection string.
func NewAzure(cfg AzureConfig) (*Azure, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("azure connection string required")
	}
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, err
	}
	return &Azure{client: client}, nil
}

func (s *Azure) Driver() Driver { return DriverAzure }

func (s *Azure) Fetch(ctx context.Context, container, name string) (b []byte, err error) {
	resp, err := s.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, fmt.Errorf("%s/%s: %w", container, name, ErrNotExist)
		}
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, resp.Body.Close())
	}()
	return io.ReadAll(resp.Body)
}

// Store uploads data as a block blob, overwriting any existing one.
func (s *Azure) Store(ctx context.Context, container, name string, data []byte) error {
	opts := &azblob.UploadBufferOptions{}
	if ct := contentType(name); ct != "" {
		opts.HTTPHeaders = &azblobblob.HTTPHeaders{
			BlobContentType: &ct,
		}
	}
	_, err := s.client.UploadBuffer(ctx, container, name, data, opts)
	return err
}
