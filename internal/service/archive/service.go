package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"

	"lifesavers-united/internal/domain"
)

// Service mirrors request state into object storage. Each write lands at
// requests/<id>/<unixnano>.json so a request's full snapshot trail survives
// even if the database row keeps mutating. Failures are logged and dropped;
// the database remains the system of record.
type Service interface {
	ArchiveRequest(ctx context.Context, request *domain.Request)
}

type service struct {
	client *minio.Client
	bucket string
}

func NewService(client *minio.Client, bucket string) Service {
	return &service{client: client, bucket: bucket}
}

func (s *service) ArchiveRequest(ctx context.Context, request *domain.Request) {
	if s.client == nil {
		return
	}

	payload, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		log.Printf("archive: failed to marshal request %s: %v", request.ID, err)
		return
	}

	objectName := fmt.Sprintf("requests/%s/%d.json", request.ID, request.UpdatedAt.UnixNano())
	reader := bytes.NewReader(payload)

	_, err = s.client.PutObject(ctx, s.bucket, objectName, reader, int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		log.Printf("archive: failed to store snapshot %s: %v", objectName, err)
	}
}
