package utils

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// LookupTag returns the value of the tag with the given key, or nil when the
// resource does not carry that tag
func LookupTag(tags []types.Tag, key string) *string {
	for _, tag := range tags {
		if tag.Key != nil && *tag.Key == key {
			return aws.String(aws.ToString(tag.Value))
		}
	}
	return nil
}
