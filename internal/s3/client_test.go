package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
)

// MockObjectAPI мок для S3 API с хранением объектов в памяти
type MockObjectAPI struct {
	objects map[string][]byte
	err     error
}

func newMockObjectAPI() *MockObjectAPI {
	return &MockObjectAPI{objects: make(map[string][]byte)}
}

func (m *MockObjectAPI) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.StringValue(input.Bucket)+"/"+aws.StringValue(input.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (m *MockObjectAPI) GetObjectWithContext(_ aws.Context, input *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, ok := m.objects[aws.StringValue(input.Bucket)+"/"+aws.StringValue(input.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (m *MockObjectAPI) DeleteObjectWithContext(_ aws.Context, input *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	delete(m.objects, aws.StringValue(input.Bucket)+"/"+aws.StringValue(input.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// TestPutGetDelete тестирует полный цикл работы с объектом
func TestPutGetDelete(t *testing.T) {
	api := newMockObjectAPI()
	client := NewClientWithAPI(api, "test-bucket")
	ctx := context.Background()

	if err := client.PutObject(ctx, "cached_tracks.json", []byte(`[]`)); err != nil {
		t.Fatalf("Неожиданная ошибка при загрузке: %v", err)
	}
	if _, ok := api.objects["test-bucket/cached_tracks.json"]; !ok {
		t.Fatal("Объект должен попасть в бакет test-bucket")
	}

	body, err := client.GetObject(ctx, "cached_tracks.json")
	if err != nil {
		t.Fatalf("Неожиданная ошибка при получении: %v", err)
	}
	if string(body) != `[]` {
		t.Errorf("Ожидалось содержимое [], получено: %s", body)
	}

	if err := client.DeleteObject(ctx, "cached_tracks.json"); err != nil {
		t.Fatalf("Неожиданная ошибка при удалении: %v", err)
	}
	if _, err := client.GetObject(ctx, "cached_tracks.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Ожидалась ErrNotFound после удаления, получено: %v", err)
	}
}

// TestErrorHandling тестирует обработку ошибок S3
func TestErrorHandling(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"InvalidCredentials", awserr.New("InvalidAccessKeyId", "The AWS Access Key Id you provided does not exist in our records.", nil)},
		{"NetworkError", awserr.New("RequestTimeout", "Request timeout", nil)},
		{"BucketAccessError", awserr.New("AccessDenied", "Access Denied", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newMockObjectAPI()
			api.err = tt.err
			client := NewClientWithAPI(api, "test-bucket")
			ctx := context.Background()

			err := client.PutObject(ctx, "key", []byte("x"))
			if err == nil || !strings.Contains(err.Error(), "ошибка загрузки объекта") {
				t.Errorf("Неожиданное сообщение об ошибке: %v", err)
			}

			_, err = client.GetObject(ctx, "key")
			if err == nil || errors.Is(err, ErrNotFound) {
				t.Errorf("Ошибка доступа не должна превращаться в ErrNotFound: %v", err)
			}

			err = client.DeleteObject(ctx, "key")
			if err == nil || !strings.Contains(err.Error(), "ошибка удаления объекта") {
				t.Errorf("Неожиданное сообщение об ошибке: %v", err)
			}
		})
	}
}

// TestNewClient проверяет создание клиента с пользовательским endpoint
func TestNewClient(t *testing.T) {
	client, err := NewClient(&Config{
		Region:     "us-east-1",
		AccessKey:  "test-access-key",
		SecretKey:  "test-secret-key",
		Endpoint:   "http://localhost:9000",
		BucketName: "test-bucket",
	})
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if client.Bucket() != "test-bucket" {
		t.Errorf("Ожидался bucket test-bucket, получено: %s", client.Bucket())
	}
}
