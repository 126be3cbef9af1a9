package attachments

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/ignite/ghostpost/internal/config"
)

// S3Store stores attachment blobs in S3, optionally gzip-compressed and
// AES-256-GCM encrypted at rest.
type S3Store struct {
	client        *s3.Client
	bucket        string
	prefix        string
	compress      bool
	encryptionKey []byte
}

// NewS3Store loads AWS config for cfg.Region and returns a Store bound
// to cfg.Bucket/cfg.Prefix.
func NewS3Store(ctx context.Context, cfg config.AttachmentsConfig) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	store := &S3Store{
		client:   s3.NewFromConfig(awsCfg),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		compress: cfg.Compress,
	}

	if cfg.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("encryption key must be 32 bytes (AES-256)")
		}
		store.encryptionKey = key
	}

	return store, nil
}

// Put implements Store.
func (s *S3Store) Put(ctx context.Context, threadID int64, filename string, contentType string, data []byte) (string, error) {
	var err error
	if s.compress {
		data, err = gzipCompress(data)
		if err != nil {
			return "", fmt.Errorf("compress attachment: %w", err)
		}
	}
	if s.encryptionKey != nil {
		data, err = s.encrypt(data)
		if err != nil {
			return "", fmt.Errorf("encrypt attachment: %w", err)
		}
	}

	key := fmt.Sprintf("%sthreads/%d/%s-%s", s.prefix, threadID, uuid.NewString(), filename)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload attachment to s3: %w", err)
	}

	return key, nil
}

// Get implements Store.
func (s *S3Store) Get(ctx context.Context, blobKey string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(blobKey),
	})
	if err != nil {
		return nil, fmt.Errorf("download attachment from s3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read attachment body: %w", err)
	}

	if s.encryptionKey != nil {
		data, err = s.decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("decrypt attachment: %w", err)
		}
	}
	if s.compress {
		data, err = gzipDecompress(data)
		if err != nil {
			return nil, fmt.Errorf("decompress attachment: %w", err)
		}
	}

	return data, nil
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

func (s *S3Store) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *S3Store) decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
