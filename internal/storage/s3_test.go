package storage

import (
	"context"
	"io"
	"testing"

	"catalog-admin/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func configWithDisk(disk string) config.StorageConfig {
	return config.StorageConfig{Disk: disk}
}

func TestS3Disk_RoundTrip(t *testing.T) {
	ctx := context.Background()
	objects := newFakeObjects()
	disk := newS3Disk(objects, config.S3Config{Bucket: "catalog", Region: "eu-west-1"})

	require.NoError(t, disk.Put(ctx, "products/x.jpg", []byte("jpeg"), "image/jpeg"))
	assert.Equal(t, "image/jpeg", objects.types["catalog/products/x.jpg"])
	assert.Equal(t, []byte("jpeg"), objects.objects["catalog/products/x.jpg"])

	require.NoError(t, disk.Delete(ctx, "products/x.jpg"))
	assert.NotContains(t, objects.objects, "catalog/products/x.jpg")
}

func TestS3Disk_URL(t *testing.T) {
	disk := newS3Disk(newFakeObjects(), config.S3Config{Bucket: "catalog", Region: "eu-west-1"})
	assert.Equal(t, "https://catalog.s3.eu-west-1.amazonaws.com/products/x.jpg", disk.URL("products/x.jpg"))

	custom := newS3Disk(newFakeObjects(), config.S3Config{Bucket: "catalog", URL: "https://cdn.example.com/"})
	assert.Equal(t, "https://cdn.example.com/products/x.jpg", custom.URL("/products/x.jpg"))
}

func TestNewS3Disk_RequiresBucket(t *testing.T) {
	_, err := NewS3Disk(context.Background(), config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
