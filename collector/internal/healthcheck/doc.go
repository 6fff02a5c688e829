// Package healthcheck publishes collector health over the standard gRPC
// health checking protocol (grpc.health.v1).
package healthcheck
