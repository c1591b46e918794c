/*
Package session implements visitor session management and persistence orchestration.

It provides the read-modify-write cycle the cart relies on: a session is loaded
(or started empty), mutated, stamped with a rolling expiry and saved, all while
holding a per-session lock. Local locks serialize requests within one process;
an optional distributed locker extends this across replicas.
*/
package session
