package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// IconStore 把远端自定义表情的图标镜像一份到对象存储。
// 完全是尽力而为：失败只记日志，绝不影响活动本身的处理。
type IconStore struct {
	client *minio.Client
	bucket string
	http   *http.Client
}

func NewIconStore(endpoint, accessKey, secretKey, bucketName string) (*IconStore, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false, // 本地开发通常用 HTTP (false), 生产环境用 HTTPS (true)
	})
	if err != nil {
		return nil, err
	}

	// 自动创建 Bucket (如果不存在)
	ctx := context.Background()
	exists, _ := minioClient.BucketExists(ctx, bucketName)
	if !exists {
		if err := minioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &IconStore{
		client: minioClient,
		bucket: bucketName,
		http:   &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Mirror 异步拉取图标并写入 bucket，key 为 custom_emojis/<domain>/<shortcode>
func (s *IconStore) Mirror(ctx context.Context, shortcode, domain, imageURL string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resp, err := s.http.Get(imageURL)
		if err != nil {
			zap.L().Warn("emoji icon fetch failed", zap.String("url", imageURL), zap.Error(err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			zap.L().Warn("emoji icon fetch failed", zap.String("url", imageURL), zap.Int("status", resp.StatusCode))
			return
		}

		objectName := fmt.Sprintf("custom_emojis/%s/%s", domain, shortcode)
		_, err = s.client.PutObject(ctx, s.bucket, objectName, resp.Body, resp.ContentLength, minio.PutObjectOptions{
			ContentType: resp.Header.Get("Content-Type"),
		})
		if err != nil {
			zap.L().Warn("emoji icon mirror failed", zap.String("object", objectName), zap.Error(err))
			return
		}

		zap.L().Info("emoji icon mirrored", zap.String("object", objectName))
	}()
}
