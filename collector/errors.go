package collector

import (
	"fmt"

	"github.com/azure/exposure-reporter/types"
)

type ItemFailure struct {
	Identity types.ResourceIdentity
	Err      error
}

// CollectionError aggregates the failures of one kind. Cause is set when the
// kind could not be listed at all; otherwise only ItemFailures are present
// and the rows that did succeed are still returned.
type CollectionError struct {
	Kind         types.ResourceKind
	Cause        error
	ItemFailures []ItemFailure
}

func (collectionError *CollectionError) Error() string {
	if collectionError.Cause != nil {
		return fmt.Sprintf("collecting %s failed: %v", collectionError.Kind, collectionError.Cause)
	}
	return fmt.Sprintf("collecting %s: %d resource(s) could not be inspected", collectionError.Kind, len(collectionError.ItemFailures))
}

func (collectionError *CollectionError) Unwrap() error {
	return collectionError.Cause
}

// Partial is true when listing succeeded and only individual items failed.
func (collectionError *CollectionError) Partial() bool {
	return collectionError.Cause == nil
}
