// Command server runs the PokerLens analytics backend: it imports hand
// histories, serves statistics over REST and pushes live updates to the
// dashboard over WebSocket.
package main
