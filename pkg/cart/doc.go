// Package cart implements the cart operations of a visitor session.
//
// The Service is the only writer of carts. Each mutation runs inside the
// session manager's read-modify-write cycle, so concurrent requests for one
// session are applied one after another and none of them is lost.
package cart
