package common

// RequestIDHeaderName carries the per-request identifier on HTTP responses.
const RequestIDHeaderName = "X-Request-Id"

// ServiceName is used in logs and in the root endpoint.
const ServiceName = "kitekeeper"
