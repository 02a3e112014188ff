package r2

import (
	"context"
	"fmt"
	"log"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"studyguideai/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// GuideFilename is the object name of a saved study guide snapshot.
const GuideFilename = "guide.html"

// Client uploads study guide snapshots to Cloudflare R2.
type Client struct {
	s3Client   *s3.Client
	bucketName string
	publicURL  string
}

// NewClient configures an R2 client. It returns (nil, nil) when R2 is not
// configured so snapshot uploads can be skipped.
func NewClient(ctx context.Context, cfg config.R2Config) (*Client, error) {
	if !cfg.Configured() {
		log.Println("WARN: Cloudflare R2 environment variables not fully configured (CLOUDFLARE_ACCOUNT_ID, R2_BUCKET_NAME, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_PUBLIC_URL). Guide snapshots will not be uploaded.")
		return nil, nil
	}
	return newClient(ctx, cfg, fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
}

func newClient(ctx context.Context, cfg config.R2Config, endpoint string) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithRegion("auto"),
		awsconfig.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	log.Printf("INFO: R2 Client initialized for bucket '%s'", cfg.Bucket)
	return &Client{
		s3Client:   s3Client,
		bucketName: cfg.Bucket,
		publicURL:  cfg.PublicURL,
	}, nil
}

// ObjectKey returns "material/<userID>/<materialID>/<filename>".
func ObjectKey(userID, materialID uuid.UUID, filename string) string {
	return fmt.Sprintf("material/%s/%s/%s", userID, materialID, filename)
}

// UploadGuide stores the rendered guide HTML of a saved material and returns
// its public URL.
func (c *Client) UploadGuide(ctx context.Context, userID, materialID uuid.UUID, html string) (string, error) {
	if c == nil || c.s3Client == nil {
		return "", fmt.Errorf("R2 client not initialized, skipping upload")
	}

	objectKey := ObjectKey(userID, materialID, GuideFilename)
	contentType := mime.TypeByExtension(filepath.Ext(GuideFilename))
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(objectKey),
		Body:        strings.NewReader(html),
		ACL:         types.ObjectCannedACLPublicRead,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to R2 (key: %s): %w", objectKey, err)
	}

	baseURL, err := url.Parse(c.publicURL)
	if err != nil {
		log.Printf("ERROR: Failed to parse R2 public base URL '%s': %v", c.publicURL, err)
		return "", fmt.Errorf("invalid R2 public base URL configured")
	}
	baseURL.Path = path.Join(baseURL.Path, objectKey)

	publicFileURL := baseURL.String()
	log.Printf("INFO: Successfully uploaded guide snapshot to R2: %s", publicFileURL)
	return publicFileURL, nil
}
