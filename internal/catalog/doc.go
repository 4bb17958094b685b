// Package catalog implements Terrier's table catalog.
//
// Descriptors live in Pebble under the cat/ keyspace:
//
//	cat/t/{oid_be8}  - table descriptor (JSON)
//	cat/n/{name}     - name index (oid_be8)
//	cat/meta/oid     - last assigned oid (be8)
//
// Every mutation is logged through the WAL durability pipeline first and is
// applied to Pebble only after the log record's covering flush completes, so
// a catalog change is never visible without a durable record proving it.
package catalog
