// Package server provides the HTTP server for the vm-service API.
//
// This package implements the core HTTP server that handles all REST API
// requests. It uses gorilla/mux for routing and provides middleware for
// authentication and request handling.
//
// # Server Setup
//
//	srv := server.NewServer(deps, host, port)
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - POST /vm/aws/addaccount - register an AWS credential
//   - GET /vm/cloudaccounts - list the caller's credentials (masked)
//   - GET /vm/aws/listvms - aggregate inventory across the caller's accounts
//   - GET /vm/ec2 - inventory for the caller's primary credential and region
//   - GET /vm/all - inventory across the configured region list
//   - GET /vm/aws/regions - known regions
//   - GET /vm/user - the authenticated user
//   - GET /health - liveness and database connectivity
//   - GET /metrics - Prometheus metrics
package server
