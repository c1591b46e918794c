/*
Package domain contains the core models and rules of the storefront cart.

It defines the cart line items and their invariants, the session that owns a
cart, the catalog product cards and the reconciliation delta used by clients.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - LineItem: one product in a cart with its quantity.
  - Cart: the ordered line items of one session, at most one per product id.
  - Session: the server-side record that owns a Cart, with its expiry.
  - Product: a catalog card, the source of the attributes sent on add.
  - CartDiff: what a client must change locally to match the server cart.
*/
package domain
