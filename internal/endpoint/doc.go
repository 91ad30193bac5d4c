// Package endpoint binds one live stream connection to one frame codec
// instance and defines the send/receive surface shared by the client
// and the server.
package endpoint
