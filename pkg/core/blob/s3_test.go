package blob

import (
	"context"
	"errors"
	"io"
	"testing"

	"farmer_assist/pkg/core/llm"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Store_Put(t *testing.T) {
	fake := &fakeS3{}
	store := NewS3StoreWithClient(fake, "crops", "diagnoses/")

	url, err := store.Put(context.Background(), "/app/u1/abc.png", llm.Media{MIMEType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, "s3://crops/diagnoses/app/u1/abc.png", url)
	assert.Equal(t, "crops", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
	assert.Equal(t, "png", string(fake.body))
}

func TestS3Store_PutError(t *testing.T) {
	boom := errors.New("access denied")
	store := NewS3StoreWithClient(&fakeS3{err: boom}, "crops", "")
	_, err := store.Put(context.Background(), "k", llm.Media{MIMEType: "image/jpeg"})
	assert.ErrorIs(t, err, boom)
}
