package awsstore

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// wrapAWS annotates an AWS call failure with the service error code when one
// is present, so throttling is distinguishable from auth or schema problems
// in the logs.
func wrapAWS(op string, err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return fmt.Errorf("%s (%s): %w", op, ae.ErrorCode(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
