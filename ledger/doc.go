// Package ledger contains the core types and contracts of the lending ledger:
// the Book, Loan and TransactionRecord entities, the Snapshot aggregate that is
// persisted as one atomic unit, the Gateway and AttributeStore contracts for
// persistence and multi-turn session state, the shared error taxonomy, and the
// pagination primitives.
//
// The package holds no behavior that mutates persistent state. Mutations are
// performed by the catalog, lending and history packages and orchestrated by
// the coordinator package, one unit of work (load, validate, mutate, persist)
// per request.
package ledger
