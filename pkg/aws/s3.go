package aws

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"

	appconfig "github.com/younsl/idlemon/internal/config"
	"github.com/younsl/idlemon/internal/models"
	"github.com/younsl/idlemon/pkg/utils"
)

// DefaultRetentionDays is the staleness threshold used when none is given
const DefaultRetentionDays = 180

// ErrMissingContinuationToken is returned when S3 reports a truncated page
// without a token to fetch the next one.
var ErrMissingContinuationToken = errors.New("listing truncated without a continuation token")

// StorageAuditor finds first-level directories under an S3 prefix that have
// not been modified within a retention window
type StorageAuditor struct {
	client          S3API
	archivalClasses map[string]struct{}
	now             func() time.Time
}

// NewStorageAuditor assumes the configured role and builds the S3 client
// used by the audit
func NewStorageAuditor(ctx context.Context, cfg *appconfig.Config) (*StorageAuditor, error) {
	awsCfg, _, err := NewAssumedRoleConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	auditor := newStorageAuditor(s3.NewFromConfig(awsCfg))
	auditor.SetArchivalClasses(cfg.Storage.ArchivalClasses)
	return auditor, nil
}

func newStorageAuditor(client S3API) *StorageAuditor {
	return &StorageAuditor{
		client:          client,
		archivalClasses: map[string]struct{}{string(types.ObjectStorageClassGlacier): {}},
		now:             time.Now,
	}
}

// SetArchivalClasses replaces the storage classes excluded from aggregation
func (a *StorageAuditor) SetArchivalClasses(classes []string) {
	a.archivalClasses = make(map[string]struct{}, len(classes))
	for _, class := range classes {
		a.archivalClasses[strings.ToUpper(strings.TrimSpace(class))] = struct{}{}
	}
}

// GetPage fetches one page of objects under bucket/prefix. The continuation
// token is sent only when non-empty. nextToken is empty when the listing is
// not truncated.
func (a *StorageAuditor) GetPage(ctx context.Context, token, bucket, prefix string) (bool, string, []types.Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	if token != "" {
		input.ContinuationToken = aws.String(token)
	}

	output, err := a.client.ListObjectsV2(ctx, input)
	if err != nil {
		return false, "", nil, fmt.Errorf("error listing objects in s3://%s/%s: %w", bucket, prefix, err)
	}

	truncated := aws.ToBool(output.IsTruncated)
	var nextToken string
	if truncated {
		nextToken = aws.ToString(output.NextContinuationToken)
	}
	return truncated, nextToken, output.Contents, nil
}

// FindCandidates aggregates the objects under bucket/prefix by first-level
// directory and returns the directories whose latest modification is strictly
// older than thresholdDays, sorted by name. Objects in an archival storage
// class are skipped.
func (a *StorageAuditor) FindCandidates(ctx context.Context, bucket, prefix string, thresholdDays int) ([]models.DirectoryInfo, error) {
	log.Info().Str("bucket", bucket).Str("prefix", prefix).Int("thresholdDays", thresholdDays).Msg("Finding stale directories")

	now := a.now()
	cutoff := now.Add(-time.Duration(thresholdDays) * 24 * time.Hour)

	directories := map[string]*models.DirectoryInfo{}
	var token string
	pages, objects := 0, 0
	for {
		truncated, nextToken, contents, err := a.GetPage(ctx, token, bucket, prefix)
		if err != nil {
			return nil, err
		}
		pages++

		for _, object := range contents {
			if a.isArchival(object.StorageClass) {
				continue
			}
			objects++

			name := firstLevelDir(aws.ToString(object.Key), prefix)
			dir, ok := directories[name]
			if !ok {
				dir = &models.DirectoryInfo{Name: name, Bucket: bucket, Prefix: prefix}
				directories[name] = dir
			}
			mergeObject(dir, object)
		}

		if !truncated {
			break
		}
		if nextToken == "" {
			return nil, fmt.Errorf("s3://%s/%s after %d pages: %w", bucket, prefix, pages, ErrMissingContinuationToken)
		}
		token = nextToken
	}

	candidates := []models.DirectoryInfo{}
	for _, dir := range directories {
		if !dir.LastModified.Before(cutoff) {
			continue
		}
		dir.IdleDays = utils.CalculateElapsedDays(dir.LastModified, now)
		candidates = append(candidates, *dir)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name < candidates[j].Name
	})

	log.Debug().
		Int("pages", pages).
		Int("objects", objects).
		Int("directories", len(directories)).
		Int("stale", len(candidates)).
		Msg("storage audit complete")
	return candidates, nil
}

func (a *StorageAuditor) isArchival(class types.ObjectStorageClass) bool {
	if class == "" {
		return false
	}
	_, ok := a.archivalClasses[string(class)]
	return ok
}

// firstLevelDir returns the directory an object belongs to relative to
// prefix, or models.CurrentDirName when the object sits directly under it.
func firstLevelDir(key, prefix string) string {
	rest := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
	if dir, _, found := strings.Cut(rest, "/"); found {
		return dir
	}
	return models.CurrentDirName
}

func mergeObject(dir *models.DirectoryInfo, object types.Object) {
	if modified := aws.ToTime(object.LastModified); modified.After(dir.LastModified) {
		dir.LastModified = modified
	}
	dir.Size += aws.ToInt64(object.Size)
	dir.ObjectCount++
}
