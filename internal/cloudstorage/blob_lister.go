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

package cloudstorage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardinalhq/lakeverify/internal/azureclient"
)

// blobLister lists a container with the Azure SDK.
type blobLister struct {
	blobClient *azureclient.BlobClient
	container  string
}

func NewBlobLister(blobClient *azureclient.BlobClient, container string) Lister {
	return &blobLister{blobClient: blobClient, container: container}
}

// Glob accepts either a blob-name pattern ("folder/*.parquet") or an
// az://container/... URL as produced by storagepath.Location.Glob.
func (l *blobLister) Glob(ctx context.Context, pattern string) ([]ObjectInfo, error) {
	pattern = l.blobPattern(pattern)

	ctx, span := l.blobClient.Tracer.Start(ctx, "cloudstorage.azureGlob",
		trace.WithAttributes(
			attribute.String("container", l.container),
			attribute.String("pattern", pattern),
		),
	)
	defer span.End()

	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
	}

	pager := l.blobClient.Client.NewListBlobsFlatPager(l.container, &azblob.ListBlobsFlatOptions{
		Prefix: to.Ptr(literalPrefix(pattern)),
	})

	var out []ObjectInfo
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("list blobs %s/%s: %w", l.container, pattern, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			if ok, _ := path.Match(pattern, *item.Name); !ok {
				continue
			}
			obj := ObjectInfo{Name: *item.Name}
			if item.Properties != nil {
				if item.Properties.ContentLength != nil {
					obj.Size = *item.Properties.ContentLength
				}
				if item.Properties.LastModified != nil {
					obj.Modified = *item.Properties.LastModified
				}
			}
			out = append(out, obj)
		}
	}

	span.SetAttributes(attribute.Int("object_count", len(out)))
	return out, nil
}

func (l *blobLister) blobPattern(pattern string) string {
	if rest, ok := strings.CutPrefix(pattern, "az://"); ok {
		return strings.TrimPrefix(rest, l.container+"/")
	}
	return strings.TrimPrefix(pattern, "/")
}

// literalPrefix is the part of pattern before its first meta character.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?[\\"); i >= 0 {
		return pattern[:i]
	}
	return pattern
}
