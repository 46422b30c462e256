// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package azureclient

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.opentelemetry.io/otel/trace"
)

type BlobClient struct {
	Client *azblob.Client
	Tracer trace.Tracer
}

type blobConfig struct {
	StorageAccount string
	Endpoint       string
}

type BlobOption func(*blobConfig)

func WithBlobStorageAccount(storageAccount string) BlobOption {
	return func(c *blobConfig) {
		c.StorageAccount = storageAccount
	}
}

func WithBlobEndpoint(endpoint string) BlobOption {
	return func(c *blobConfig) {
		c.Endpoint = endpoint
	}
}

type blobClientKey struct {
	StorageAccount string
}

// GetBlob returns a cached blob client for the storage account.
func (m *Manager) GetBlob(ctx context.Context, opts ...BlobOption) (*BlobClient, error) {
	bc := blobConfig{}
	for _, o := range opts {
		o(&bc)
	}

	if bc.StorageAccount == "" {
		return nil, fmt.Errorf("storage account is required")
	}

	if bc.Endpoint == "" && m.connectionString == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	key := blobClientKey{StorageAccount: bc.StorageAccount}
	m.RLock()
	client, ok := m.blobClients[key]
	m.RUnlock()
	if ok {
		return client, nil
	}

	m.Lock()
	defer m.Unlock()
	if client, ok = m.blobClients[key]; ok {
		return client, nil
	}

	var blobClient *azblob.Client
	var err error
	if m.connectionString != "" {
		blobClient, err = azblob.NewClientFromConnectionString(m.connectionString, nil)
	} else {
		blobClient, err = azblob.NewClient(bc.Endpoint, m.baseCred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	client = &BlobClient{
		Client: blobClient,
		Tracer: m.tracer,
	}
	m.blobClients[key] = client
	return client, nil
}
