/*
Package loaves is the storefront cart for Luca's Loaves, a small bakery website.

The interesting state of the site lives in the session cart: visitors add
breads and pastries from the online-orders page, adjust quantities with
steppers, review the cart and check out. Everything else on the site (static
pages, the contact and careers forms) is plain page rendering and lives
elsewhere.

# Architecture

The cart follows a Hexagonal layout. The domain (pkg/domain) holds the cart
model and its invariants and has no I/O. Driven ports (pkg/ports) describe
session persistence and catalogs, with adapters for memory, files, Redis and
MongoDB. The Cart Service (pkg/cart) runs every mutation as a serialized
read-modify-write through the session Manager (pkg/session). Driving adapters
expose the service over HTTP (pkg/adapters/http) and MCP (pkg/adapters/mcp).

pkg/client is the other half of the system: the optimistic storefront that a
page (or the terminal shop) drives. It syncs controls from the authoritative
cart, applies increments and decrements immediately, pushes them to the API
in order and reconciles against the server's answer.

# Usage

	loaves serve --addr :3000
	loaves shop --url http://localhost:3000
*/
package loaves
