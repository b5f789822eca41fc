// Package services provides the typed CRUD façades over the server's
// resource collections. Each operation maps to exactly one resource client
// call; transport errors are translated into domain-meaningful kinds here.
package services

import (
	"net/http"
	"strings"

	"floo/internal/api"
)

// dependentsMarker is the server's referential-integrity indicator: a 400
// delete response whose detail contains it means dependent transactions
// still reference the record.
const dependentsMarker = "transactions exist"

// translateDelete finalizes the error kind for a failed DELETE. A 400 whose
// detail carries the dependency marker becomes HasDependents with the raw
// message; any other 400 is a generic operation failure, since delete
// requests carry no input fields to validate.
func translateDelete(err error) error {
	apiErr, ok := api.AsError(err)
	if !ok || apiErr.Status != http.StatusBadRequest {
		return err
	}

	kind := api.KindOperation
	if strings.Contains(apiErr.Detail, dependentsMarker) {
		kind = api.KindHasDependents
	}
	return &api.Error{Kind: kind, Status: apiErr.Status, Detail: apiErr.Detail, Op: apiErr.Op}
}
