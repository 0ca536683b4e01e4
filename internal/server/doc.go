// Package server assembles the PokerLens backend.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (request IDs, CORS, rate limiting, metrics, recovery)
//   - Hand store, statistics engine and import pipeline
//   - Hand-history directory watcher
//   - Coaching service client
//   - WebSocket hub for dashboard push
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Build the store, engine, importer, watcher and coach client
//  4. Setup HTTP routes and middleware
//  5. Start the import worker and watcher
//  6. Serve HTTP
//  7. Graceful shutdown on signal
package server
