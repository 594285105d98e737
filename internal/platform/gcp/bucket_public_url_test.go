package gcp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yungbote/lms-backend/internal/platform/logger"
)

func TestGetPublicURL(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	gcs := newBucketService(log, ObjectStorageConfig{Mode: ObjectStorageModeGCS, Bucket: "certs"})
	assert.Equal(t,
		"https://storage.googleapis.com/certs/certificates/a.png",
		gcs.GetPublicURL(BucketCategoryCertificate, "/certificates/a.png"))

	cdn := newBucketService(log, ObjectStorageConfig{Mode: ObjectStorageModeGCS, Bucket: "certs", CDNDomain: "cdn.example.com"})
	assert.Equal(t, "https://cdn.example.com/certificates/a.png", cdn.GetPublicURL(BucketCategoryCertificate, "certificates/a.png"))

	emu := newBucketService(log, ObjectStorageConfig{
		Mode:         ObjectStorageModeGCSEmulator,
		Bucket:       "certs",
		EmulatorHost: "http://fake-gcs:4443",
	})
	assert.Equal(t,
		"http://fake-gcs:4443/storage/v1/b/certs/o/certificates%2Fa.png?alt=media",
		emu.GetPublicURL(BucketCategoryCertificate, "certificates/a.png"))

	assert.Equal(t, "raw", gcs.GetPublicURL(BucketCategory("avatar"), "raw"))
}
