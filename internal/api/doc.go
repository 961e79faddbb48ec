// Package api serves the work item assignment endpoints over HTTP.
//
// Each endpoint drives one locking strategy:
//
//	POST /workItem/assign-pessimistic
//	POST /workItem/assign-optimistic-row-version
//	POST /workItem/assign-manual-optimistic-concurrency-token
//	GET  /workItem/{strategy}/{id}
//	GET  /healthz
//
// Outcomes map to status codes: Success 200, NotFound 404, Conflict 409 and
// Failure 500.
package api
