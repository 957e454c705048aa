package analyses

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/terrasense/regolith/pkg/storage"
)

const evidenceContentType = "image/jpeg"

// evidenceKey builds the blob key for an evidence image, scoped to the
// owning engineer and salted with a short random suffix to keep runs in
// the same second from colliding.
func evidenceKey(owner string, now time.Time) string {
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("%s/%s_%s.jpg", owner, now.Format("20060102_150405"), suffix)
}

// captureEvidence uploads an evidence image and returns its public URL.
func captureEvidence(ctx context.Context, store storage.System, owner string, image []byte) (string, error) {
	key := evidenceKey(owner, time.Now().UTC())

	if err := store.Upload(ctx, key, bytes.NewReader(image), evidenceContentType); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEvidenceUpload, err)
	}

	return store.URL(key), nil
}
