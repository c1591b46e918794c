/*
Package client talks to the Cart API the way a browser storefront does.

Client is a cookie-jar HTTP client for the cart endpoints. Storefront layers
the page behavior on top of it: it synchronizes the product controls of a
Page with the server cart on load, applies increments and decrements
optimistically and pushes them to the server from a single dispatcher
goroutine, so calls reach the server in the order the shopper made them.

When the dispatcher drains, the last cart returned by the server is diffed
against the local snapshot and any drift is corrected.
*/
package client
