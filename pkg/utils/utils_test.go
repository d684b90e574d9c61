package utils

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTag(t *testing.T) {
	tags := []types.Tag{
		{Key: aws.String("Name"), Value: aws.String("web-1")},
		{Key: aws.String("Owner"), Value: aws.String("")},
		{Key: aws.String("CostCenter"), Value: aws.String("42")},
		{Key: nil, Value: aws.String("orphan")},
	}

	name := LookupTag(tags, "Name")
	require.NotNil(t, name)
	assert.Equal(t, "web-1", *name)

	// present with an empty value is still present
	owner := LookupTag(tags, "Owner")
	require.NotNil(t, owner)
	assert.Equal(t, "", *owner)

	assert.Nil(t, LookupTag(tags, "App"))
	assert.Nil(t, LookupTag(nil, "Name"))
}

func TestSafeDeref(t *testing.T) {
	assert.Equal(t, "-", SafeDeref(nil, "-"))
	assert.Equal(t, "x", SafeDeref(aws.String("x"), "-"))
}

func TestCalculateElapsedDays(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, CalculateElapsedDays(time.Time{}, now))
	assert.Equal(t, 0, CalculateElapsedDays(now.Add(time.Hour), now))
	assert.Equal(t, 0, CalculateElapsedDays(now.Add(-23*time.Hour), now))
	assert.Equal(t, 1, CalculateElapsedDays(now.Add(-25*time.Hour), now))
	assert.Equal(t, 85, CalculateElapsedDays(now.AddDate(0, 0, -85), now))
}

func TestRegionNames(t *testing.T) {
	assert.Equal(t, "Asia Pacific (Seoul)", GetRegionDescriptiveName("ap-northeast-2"))
	assert.Equal(t, "US East (N. Virginia)", GetRegionDescriptiveName("xx-nowhere-1"))
	assert.True(t, IsKnownRegion("eu-west-1"))
	assert.False(t, IsKnownRegion("xx-nowhere-1"))
}

func TestJSONHelpers(t *testing.T) {
	doc, err := ParseJSON(`{"product": {"attributes": {"storageClass": "General Purpose"}}, "terms": {"b": 2, "a": 1}}`)
	require.NoError(t, err)

	class, err := GetNestedString(doc, "product", "attributes", "storageClass")
	require.NoError(t, err)
	assert.Equal(t, "General Purpose", class)

	_, err = GetNestedString(doc, "product", "missing", "storageClass")
	assert.Error(t, err)
	_, err = GetNestedString(doc)
	assert.Error(t, err)

	first, err := GetFirstMapValue(doc["terms"].(map[string]interface{}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), first)

	_, err = GetFirstMapValue(map[string]interface{}{})
	assert.Error(t, err)

	_, err = ParseJSON("{")
	assert.Error(t, err)
}
