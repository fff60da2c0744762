// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observer

// ServiceVersion is the observer service version.
const ServiceVersion = "1.0.0"

// HealthResponse is the response for GET / and GET /healthz.
type HealthResponse struct {
	// Message is always "Healthy" while the process serves traffic.
	Message string `json:"message"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}

// Error codes returned in ErrorResponse.Code.
const (
	// CodeInvalidRequest marks a request body that failed binding or
	// validation.
	CodeInvalidRequest = "INVALID_REQUEST"

	// CodeInvalidQuery marks malformed or out-of-bounds query parameters,
	// including unparsable from/to time bounds.
	CodeInvalidQuery = "INVALID_QUERY"
)
