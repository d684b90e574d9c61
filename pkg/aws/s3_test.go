package aws

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younsl/idlemon/internal/models"
)

func newTestObject(key string, size int64, modified time.Time, class types.ObjectStorageClass) types.Object {
	return types.Object{
		Key:          aws.String(key),
		Size:         aws.Int64(size),
		LastModified: aws.Time(modified),
		StorageClass: class,
	}
}

// pagedListing serves pages in order, keyed by the continuation token that
// requests them ("" for the first page).
func pagedListing(pages map[string]*s3.ListObjectsV2Output, tokens *[]*string) *mockS3Client {
	return &mockS3Client{
		ListObjectsV2Func: func(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			if tokens != nil {
				*tokens = append(*tokens, params.ContinuationToken)
			}
			page, ok := pages[aws.ToString(params.ContinuationToken)]
			if !ok {
				return nil, errors.New("unexpected continuation token")
			}
			return page, nil
		},
	}
}

func newTestStorageAuditor(client S3API) *StorageAuditor {
	auditor := newStorageAuditor(client)
	auditor.now = func() time.Time { return testNow }
	return auditor
}

func TestGetPage(t *testing.T) {
	t.Run("first page omits the token", func(t *testing.T) {
		var captured *s3.ListObjectsV2Input
		client := &mockS3Client{
			ListObjectsV2Func: func(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
				captured = params
				return &s3.ListObjectsV2Output{
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("next"),
					Contents:              []types.Object{newTestObject("qlyu/a/f", 1, testNow, types.ObjectStorageClassStandard)},
				}, nil
			},
		}

		truncated, next, objects, err := newTestStorageAuditor(client).GetPage(context.Background(), "", "bucket", "qlyu")
		require.NoError(t, err)

		assert.Nil(t, captured.ContinuationToken)
		assert.Equal(t, "bucket", aws.ToString(captured.Bucket))
		assert.Equal(t, "qlyu", aws.ToString(captured.Prefix))
		assert.True(t, truncated)
		assert.Equal(t, "next", next)
		assert.Len(t, objects, 1)
	})

	t.Run("later pages send the token", func(t *testing.T) {
		var captured *s3.ListObjectsV2Input
		client := &mockS3Client{
			ListObjectsV2Func: func(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
				captured = params
				return &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false), NextContinuationToken: aws.String("ignored")}, nil
			},
		}

		truncated, next, objects, err := newTestStorageAuditor(client).GetPage(context.Background(), "tok-2", "bucket", "qlyu")
		require.NoError(t, err)

		assert.Equal(t, "tok-2", aws.ToString(captured.ContinuationToken))
		assert.False(t, truncated)
		assert.Empty(t, next, "no next token when the listing is complete")
		assert.Empty(t, objects)
	})

	t.Run("error is wrapped", func(t *testing.T) {
		client := &mockS3Client{
			ListObjectsV2Func: func(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
				return nil, errors.New("AccessDenied")
			},
		}

		_, _, _, err := newTestStorageAuditor(client).GetPage(context.Background(), "", "bucket", "qlyu")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "s3://bucket/qlyu")
		assert.Contains(t, err.Error(), "AccessDenied")
	})
}

func TestStorageFindCandidates_Aggregation(t *testing.T) {
	t1 := testNow.AddDate(0, 0, -400)
	t2 := testNow.AddDate(0, 0, -300)
	t3 := testNow.AddDate(0, 0, -500)

	client := pagedListing(map[string]*s3.ListObjectsV2Output{
		"": {
			IsTruncated: aws.Bool(false),
			Contents: []types.Object{
				newTestObject("prefix/a/file1", 10, t1, types.ObjectStorageClassStandard),
				newTestObject("prefix/a/file2", 20, t2, types.ObjectStorageClassStandard),
				newTestObject("prefix/file3", 5, t3, types.ObjectStorageClassGlacier),
			},
		},
	}, nil)

	candidates, err := newTestStorageAuditor(client).FindCandidates(context.Background(), "bucket", "prefix", 180)
	require.NoError(t, err)

	require.Len(t, candidates, 1, "archived object must not create a current-dir entry")
	dir := candidates[0]
	assert.Equal(t, "a", dir.Name)
	assert.Equal(t, int64(30), dir.Size)
	assert.Equal(t, int64(2), dir.ObjectCount)
	assert.Equal(t, t2, dir.LastModified)
	assert.Equal(t, 300, dir.IdleDays)
	assert.Equal(t, "bucket", dir.Bucket)
	assert.Equal(t, "prefix", dir.Prefix)
}

func TestStorageFindCandidates_Pagination(t *testing.T) {
	old := testNow.AddDate(0, 0, -200)
	recent := testNow.AddDate(0, 0, -10)

	var tokens []*string
	client := pagedListing(map[string]*s3.ListObjectsV2Output{
		"": {
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("p2"),
			Contents: []types.Object{
				newTestObject("team/logs/1", 100, old, types.ObjectStorageClassStandard),
				newTestObject("team/tmp/1", 1, old, types.ObjectStorageClassStandard),
			},
		},
		"p2": {
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("p3"),
			Contents: []types.Object{
				newTestObject("team/logs/2", 50, old.Add(time.Hour), types.ObjectStorageClassStandardIa),
			},
		},
		"p3": {
			IsTruncated: aws.Bool(false),
			Contents: []types.Object{
				newTestObject("team/tmp/2", 1, recent, types.ObjectStorageClassStandard),
			},
		},
	}, &tokens)

	candidates, err := newTestStorageAuditor(client).FindCandidates(context.Background(), "bucket", "team/", 180)
	require.NoError(t, err)

	require.Len(t, tokens, 3)
	assert.Nil(t, tokens[0])
	assert.Equal(t, "p2", aws.ToString(tokens[1]))
	assert.Equal(t, "p3", aws.ToString(tokens[2]))

	require.Len(t, candidates, 1, "tmp was touched recently on the last page")
	assert.Equal(t, "logs", candidates[0].Name)
	assert.Equal(t, int64(150), candidates[0].Size)
	assert.Equal(t, old.Add(time.Hour), candidates[0].LastModified)
}

func TestStorageFindCandidates_CurrentDirAndOrdering(t *testing.T) {
	old := testNow.AddDate(0, 0, -365)
	client := pagedListing(map[string]*s3.ListObjectsV2Output{
		"": {
			IsTruncated: aws.Bool(false),
			Contents: []types.Object{
				newTestObject("qlyu/zeta/x", 1, old, types.ObjectStorageClassStandard),
				newTestObject("qlyu/readme.txt", 2, old, types.ObjectStorageClassStandard),
				newTestObject("qlyu/alpha/deep/nested/y", 3, old, types.ObjectStorageClassStandard),
				newTestObject("qlyu/notes.md", 4, old, ""),
			},
		},
	}, nil)

	candidates, err := newTestStorageAuditor(client).FindCandidates(context.Background(), "bucket", "qlyu", 85)
	require.NoError(t, err)

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{models.CurrentDirName, "alpha", "zeta"}, names)
	assert.Equal(t, int64(6), candidates[0].Size)
	assert.Equal(t, int64(2), candidates[0].ObjectCount)
}

func TestStorageFindCandidates_Cutoff(t *testing.T) {
	cutoff := testNow.Add(-85 * 24 * time.Hour)
	client := pagedListing(map[string]*s3.ListObjectsV2Output{
		"": {
			IsTruncated: aws.Bool(false),
			Contents: []types.Object{
				newTestObject("p/at-cutoff/f", 1, cutoff, types.ObjectStorageClassStandard),
				newTestObject("p/before-cutoff/f", 1, cutoff.Add(-time.Second), types.ObjectStorageClassStandard),
				newTestObject("p/after-cutoff/f", 1, cutoff.Add(time.Second), types.ObjectStorageClassStandard),
			},
		},
	}, nil)

	candidates, err := newTestStorageAuditor(client).FindCandidates(context.Background(), "bucket", "p", 85)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "before-cutoff", candidates[0].Name)
}

func TestStorageFindCandidates_CutoffAcrossDaylightSaving(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 180 days before July 1 crosses the March DST change
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, newYork)
	modified := now.Add(-180*24*time.Hour + 30*time.Minute)

	client := pagedListing(map[string]*s3.ListObjectsV2Output{
		"": {
			IsTruncated: aws.Bool(false),
			Contents: []types.Object{
				newTestObject("p/recent/f", 1, modified.UTC(), types.ObjectStorageClassStandard),
				newTestObject("p/old/f", 1, modified.Add(-time.Hour).UTC(), types.ObjectStorageClassStandard),
			},
		},
	}, nil)

	auditor := newTestStorageAuditor(client)
	auditor.now = func() time.Time { return now }

	candidates, err := auditor.FindCandidates(context.Background(), "bucket", "p", 180)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "old", candidates[0].Name)
	assert.Equal(t, 180, candidates[0].IdleDays)
}

func TestStorageFindCandidates_ArchivalClasses(t *testing.T) {
	old := testNow.AddDate(0, 0, -365)
	client := pagedListing(map[string]*s3.ListObjectsV2Output{
		"": {
			IsTruncated: aws.Bool(false),
			Contents: []types.Object{
				newTestObject("p/glacier/f", 1, old, types.ObjectStorageClassGlacier),
				newTestObject("p/deep/f", 1, old, types.ObjectStorageClassDeepArchive),
				newTestObject("p/standard/f", 1, old, types.ObjectStorageClassStandard),
			},
		},
	}, nil)

	auditor := newTestStorageAuditor(client)
	auditor.SetArchivalClasses([]string{"glacier", " DEEP_ARCHIVE "})

	candidates, err := auditor.FindCandidates(context.Background(), "bucket", "p", 85)
	require.NoError(t, err)

	require.Len(t, candidates, 1)
	assert.Equal(t, "standard", candidates[0].Name)
}

func TestStorageFindCandidates_Errors(t *testing.T) {
	t.Run("truncated without token", func(t *testing.T) {
		client := pagedListing(map[string]*s3.ListObjectsV2Output{
			"": {IsTruncated: aws.Bool(true)},
		}, nil)

		_, err := newTestStorageAuditor(client).FindCandidates(context.Background(), "bucket", "p", 85)
		require.ErrorIs(t, err, ErrMissingContinuationToken)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("listing failure on a later page", func(t *testing.T) {
		client := pagedListing(map[string]*s3.ListObjectsV2Output{
			"": {IsTruncated: aws.Bool(true), NextContinuationToken: aws.String("missing")},
		}, nil)

		_, err := newTestStorageAuditor(client).FindCandidates(context.Background(), "bucket", "p", 85)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected continuation token")
	})
}

func TestFirstLevelDir(t *testing.T) {
	tests := []struct {
		key    string
		prefix string
		want   string
	}{
		{"prefix/a/file1", "prefix", "a"},
		{"prefix/file3", "prefix", models.CurrentDirName},
		{"prefix/a/b/c", "prefix", "a"},
		{"team/a/file", "team/", "a"},
		{"team/file", "team/", models.CurrentDirName},
		{"a/file", "", "a"},
		{"file", "", models.CurrentDirName},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, firstLevelDir(tt.key, tt.prefix))
		})
	}
}
