// Package api assembles the HTTP surface of the gateway: the router, the
// admission pipeline ordering, and the auth and user route handlers.
//
// # Route Metadata
//
// Routes are declared in a table carrying their method, path and minimum
// role. The server consumes the table when wiring the router, applying the
// role gate per route; handlers never re-check roles for plain minimum-role
// requirements. Rules that depend on the target resource (self-or-manager,
// self-or-admin) live in the handlers because the route table cannot
// express them.
package api
