/*
Package ports defines the driven and driving ports (interfaces) of the storefront cart.

These interfaces decouple the cart rules from external implementations, allowing
the service to work with various session backends and product catalogs, and the
adapters (HTTP, MCP) to work with any cart service.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading visitor Sessions with their TTL.
  - DistributedLocker: Provides distributed locking for concurrent access to one session.
  - Catalog: Lists the product cards a page can show.
  - CartService: The cart operations exposed by driving adapters.
*/
package ports
